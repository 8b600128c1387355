package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"budget-meal-planner/internal/app"
	"budget-meal-planner/internal/config"
	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/llm"
	"budget-meal-planner/internal/planner"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer rt.Close()
	svc := rt.Service

	unsubscribe := svc.Subscribe(func(e planner.Event) {
		fmt.Printf("[event] %s plan=%s\n", e.Type, e.PlanID)
	})
	defer unsubscribe()

	if err := run(ctx, rt, os.Args[1], os.Args[2:]); err != nil {
		rt.Close()
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, rt *app.Runtime, cmd string, args []string) error {
	svc := rt.Service
	switch cmd {
	case "profile":
		if len(args) == 0 {
			p, err := svc.Profile(ctx)
			if err != nil {
				return err
			}
			return printJSON(p)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var p domain.Profile
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("failed to parse profile: %w", err)
		}
		if err := svc.SaveProfile(ctx, p); err != nil {
			return err
		}
		fmt.Println("Profile saved.")

	case "plan":
		sess, err := svc.GeneratePlan(ctx)
		if err != nil {
			return err
		}
		printPlan(sess)

	case "show":
		sess, err := svc.CurrentSession(ctx)
		if err != nil {
			return err
		}
		printPlan(sess)

	case "replace":
		fs := flag.NewFlagSet("replace", flag.ExitOnError)
		day := fs.String("day", "", "Day name or prefix, e.g. mon")
		meal := fs.String("meal", "", "breakfast, lunch or dinner")
		all := fs.Bool("all", false, "Replace every day sharing the meal (weekly meal prep only)")
		_ = fs.Parse(args)

		dayIndex, err := domain.ParseDay(*day)
		if err != nil {
			return err
		}
		mealType, err := domain.ParseMealType(*meal)
		if err != nil {
			return err
		}
		scope, err := svc.ReplacementScope(ctx, dayIndex, mealType)
		if err != nil {
			return err
		}
		if scope.Choice && !*all {
			fmt.Printf("%q is planned on %d days; replacing only %s (use -all for every day).\n",
				scope.Current, len(scope.Shared), domain.WeekDays[dayIndex])
		}
		sess, err := svc.ReplaceMeal(ctx, dayIndex, mealType, *all)
		if err != nil {
			return err
		}
		printPlan(sess)

	case "accept":
		sess, err := svc.AcceptPlan(ctx)
		if err != nil {
			return err
		}
		printShoppingList(*sess.ShoppingList)

	case "list":
		sess, err := svc.CurrentSession(ctx)
		if err != nil {
			return err
		}
		if sess.ShoppingList == nil {
			fmt.Println("No shopping list. Accept the plan first.")
			return nil
		}
		printShoppingList(*sess.ShoppingList)

	case "recipe":
		if len(args) == 0 {
			return fmt.Errorf("usage: recipe <meal name>")
		}
		r, err := svc.Recipe(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(r)

	case "prefetch":
		report, err := svc.PrefetchRecipes(ctx)
		fmt.Printf("Requested %d, fetched %d, failed %d, batches %d\n",
			len(report.Requested), len(report.Fetched), len(report.Failed), report.Batches)
		for name, ferr := range report.Failed {
			fmt.Printf("  %s: %v\n", name, ferr)
		}
		return err

	case "quick":
		r, err := svc.QuickPantryMeal(ctx)
		if err != nil {
			return err
		}
		return printJSON(r)

	case "pantry":
		items, err := svc.Pantry(ctx)
		if err != nil {
			return err
		}
		printPantry(items)

	case "pantry-add":
		fs := flag.NewFlagSet("pantry-add", flag.ExitOnError)
		name := fs.String("name", "", "Item name")
		qty := fs.String("qty", "1", "Quantity, e.g. \"2 cans\"")
		brand := fs.String("brand", "", "Brand")
		category := fs.String("category", "", "Category")
		_ = fs.Parse(args)
		if strings.TrimSpace(*name) == "" {
			return fmt.Errorf("-name is required")
		}
		items, err := svc.AddPantryItems(ctx, domain.PantryItem{
			Name: *name, Quantity: *qty, Brand: *brand, Category: *category, Confidence: domain.MaxConfidence,
		})
		if err != nil {
			return err
		}
		printPantry(items)

	case "pantry-adjust":
		fs := flag.NewFlagSet("pantry-adjust", flag.ExitOnError)
		id := fs.String("id", "", "Item id")
		delta := fs.Int("delta", -1, "Change applied to the quantity")
		_ = fs.Parse(args)
		items, err := svc.AdjustPantryItem(ctx, *id, *delta)
		if err != nil {
			return err
		}
		printPantry(items)

	case "pantry-remove":
		if len(args) == 0 {
			return fmt.Errorf("usage: pantry-remove <id>")
		}
		items, err := svc.RemovePantryItem(ctx, args[0])
		if err != nil {
			return err
		}
		printPantry(items)

	case "scan":
		if len(args) == 0 {
			return fmt.Errorf("usage: scan <image file>")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		found, err := svc.ScanPantryImage(ctx, llm.Image{MIMEType: http.DetectContentType(data), Data: data})
		if err != nil {
			return err
		}
		fmt.Printf("Added %d items.\n", len(found.Accepted))
		if len(found.NeedsReview) > 0 {
			fmt.Println("Needs review (add with pantry-add):")
			for _, it := range found.NeedsReview {
				fmt.Printf("  %s x %s (%d/10)\n", it.Name, it.Quantity, it.Confidence)
			}
		}

	case "barcode":
		if len(args) == 0 {
			return fmt.Errorf("usage: barcode <code>")
		}
		item, err := svc.ScanBarcode(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%s) x %s\n", item.Name, item.Category, item.Quantity)

	case "delete":
		if err := svc.DeletePlan(ctx); err != nil {
			return err
		}
		fmt.Println("Plan deleted.")

	case "history":
		plans, err := svc.SavedPlans(ctx)
		if err != nil {
			return err
		}
		for _, p := range plans {
			fmt.Printf("%s  %s  $%.2f  %d meals\n", p.CreatedAt.Format("2006-01-02 15:04"), p.ID, p.WeekBudget, len(p.CookedMealNames()))
		}

	case "log":
		for _, line := range svc.DebugLog() {
			fmt.Println(line)
		}

	case "metrics":
		usage, err := rt.Metrics.GetDailyUsage(ctx, 7)
		if err != nil {
			return err
		}
		for _, d := range usage {
			fmt.Printf("%s  prompt=%d completion=%d execs=%d failed=%d\n",
				d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution, d.Failures)
		}

	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		_ = cleanupCmd.Parse(args)

		affected, err := rt.Metrics.Cleanup(ctx, *days)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPlan(sess planner.Session) {
	if sess.Plan == nil {
		fmt.Println("No current plan.")
		return
	}
	fmt.Printf("Plan %s  [%s]  budget $%.2f\n", sess.Plan.ID, sess.State(), sess.Plan.WeekBudget)
	for _, d := range sess.Plan.Days {
		fmt.Printf("\n%s\n", d.Day)
		for _, slot := range []domain.MealType{domain.Breakfast, domain.Lunch, domain.Dinner} {
			if name := d.Meals.Get(slot); name != "" {
				fmt.Printf("  %-9s %s\n", slot, name)
			}
		}
		if len(d.Meals.Snacks) > 0 {
			fmt.Printf("  %-9s %s\n", "Snacks", strings.Join(d.Meals.Snacks, ", "))
		}
	}
}

func printShoppingList(list domain.ShoppingList) {
	for _, sec := range list.Sections {
		fmt.Printf("\n%s\n", sec.Category)
		for _, it := range sec.Items {
			fmt.Printf("  %-10s %-30s $%6.2f\n", it.Quantity, it.Name, it.Price)
		}
	}
	status := "under"
	diff := list.Difference
	if !list.UnderBudget {
		status, diff = "over", -diff
	}
	fmt.Printf("\nTotal $%.2f ($%.2f %s budget)\n", list.TotalCost, diff, status)
	for _, tip := range list.SavingTips {
		fmt.Printf("  tip: %s\n", tip)
	}
}

func printPantry(items []domain.PantryItem) {
	if len(items) == 0 {
		fmt.Println("Pantry is empty.")
		return
	}
	for _, it := range items {
		fmt.Printf("%s  %-25s %-10s %s\n", it.ID, it.Name, it.Quantity, it.Status)
	}
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  profile [file.json]          Show or save the household profile")
	fmt.Println("  plan                         Generate a new weekly plan")
	fmt.Println("  show                         Show the current plan")
	fmt.Println("  replace -day D -meal M [-all] Replace one meal")
	fmt.Println("  accept                       Accept the plan and build the shopping list")
	fmt.Println("  list                         Show the shopping list")
	fmt.Println("  recipe <name>                Show the full recipe of a meal")
	fmt.Println("  prefetch                     Cache every recipe of the current plan")
	fmt.Println("  quick                        Suggest a meal from the pantry")
	fmt.Println("  pantry                       List pantry items")
	fmt.Println("  pantry-add -name N [-qty Q]  Add a pantry item")
	fmt.Println("  pantry-adjust -id I -delta N Change an item's quantity")
	fmt.Println("  pantry-remove <id>           Remove a pantry item")
	fmt.Println("  scan <image>                 Detect pantry items in a photo")
	fmt.Println("  barcode <code>               Add a product by barcode")
	fmt.Println("  delete                       Delete the current plan")
	fmt.Println("  history                      List generated plans")
	fmt.Println("  log                          Print recent log lines")
	fmt.Println("  metrics                      Show LLM usage for the last 7 days")
	fmt.Println("  metrics-cleanup [-days N]    Remove old metric records")
}
