// Package telegram exposes the planner as a Telegram bot behind a webhook.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"budget-meal-planner/internal/app"
	"budget-meal-planner/internal/config"
	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/llm"
	"budget-meal-planner/internal/metrics"
	"budget-meal-planner/internal/planner"
)

const helpText = `🧑‍🍳 *Budget Meal Planner*

/profile <json> - save your household
/plan - generate a new weekly plan
/show - show the current plan
/replace <day> <meal> - swap one meal
/accept - accept the plan and build the shopping list
/list - show the shopping list
/recipe <meal> - full recipe for a meal
/prefetch - cache every recipe of the plan
/quick - a meal from what is in the pantry
/pantry - list the pantry
/barcode <code> - add a product by barcode
/delete - delete the current plan
/metrics - usage and health
/log - recent log lines

Send a photo of your pantry to scan it.`

// Bot wraps the Telegram API and the planner service.
type Bot struct {
	api          *tgbotapi.BotAPI
	svc          *app.Service
	metricsStore *metrics.Store
	sessions     *SessionRepository
	httpClient   *http.Client
	cfg          *config.Config
	logger       *zap.Logger
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, svc *app.Service, metricsStore *metrics.Store, sessions *SessionRepository, logger *zap.Logger) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := bot.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		logger.Info("webhook set", zap.String("response", resp.Description))
	}

	return &Bot{
		api:          bot,
		svc:          svc,
		metricsStore: metricsStore,
		sessions:     sessions,
		httpClient:   &http.Client{Timeout: cfg.Timeouts.Image},
		cfg:          cfg,
		logger:       logger,
	}, nil
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if b.cfg.TelegramAllowUserID != 0 && from.ID != b.cfg.TelegramAllowUserID {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", from.ID),
			zap.String("username", from.UserName))
		return false
	}
	return true
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Warn("failed to parse update", zap.Error(err))
		return
	}

	switch {
	case update.CallbackQuery != nil:
		if b.allowed(update.CallbackQuery.From) {
			go b.handleCallbackQuery(update.CallbackQuery)
		}
	case update.Message != nil:
		if b.allowed(update.Message.From) {
			go b.processMessage(update.Message)
		}
	}
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	chatID := msg.Chat.ID

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}
	if !msg.IsCommand() {
		b.send(chatID, helpText)
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		b.send(chatID, helpText)
	case "profile":
		b.handleProfile(ctx, chatID, args)
	case "plan":
		b.handleGenerate(ctx, chatID)
	case "show":
		b.handleShow(ctx, chatID)
	case "replace":
		b.handleReplace(ctx, chatID, args)
	case "accept":
		b.handleAccept(ctx, chatID)
	case "list":
		b.handleList(ctx, chatID)
	case "recipe":
		b.handleRecipe(ctx, chatID, args)
	case "prefetch":
		b.handlePrefetch(ctx, chatID)
	case "quick":
		b.handleQuick(ctx, chatID)
	case "pantry":
		b.handlePantry(ctx, chatID)
	case "barcode":
		b.handleBarcode(ctx, chatID, args)
	case "delete":
		if err := b.svc.DeletePlan(ctx); err != nil {
			b.sendError(chatID, "deleting plan", err)
			return
		}
		b.send(chatID, "🗑 Plan deleted.")
	case "metrics":
		b.handleMetricsCommand(ctx, chatID)
	case "log":
		b.sendPlain(chatID, formatDebugLog(b.svc.DebugLog(), 30))
	default:
		b.send(chatID, "Unknown command. Try /help")
	}
}

func (b *Bot) handleProfile(ctx context.Context, chatID int64, args string) {
	if args == "" {
		p, err := b.svc.Profile(ctx)
		if err != nil {
			b.sendError(chatID, "loading profile", err)
			return
		}
		data, _ := json.MarshalIndent(p, "", "  ")
		b.sendPlain(chatID, string(data))
		return
	}
	var p domain.Profile
	if err := json.Unmarshal([]byte(args), &p); err != nil {
		b.send(chatID, "❌ Profile must be JSON.")
		return
	}
	if err := b.svc.SaveProfile(ctx, p); err != nil {
		b.sendError(chatID, "saving profile", err)
		return
	}
	b.send(chatID, "✅ Profile saved.")
}

func (b *Bot) handleGenerate(ctx context.Context, chatID int64) {
	sent, err := b.api.Send(b.markdown(chatID, "🧑‍🍳 *Thinking...*\n(Generating your weekly plan)"))
	if err != nil {
		b.logger.Warn("failed to send initial reply", zap.Error(err))
		return
	}
	sess, err := b.svc.GeneratePlan(ctx)
	if err != nil {
		b.edit(chatID, sent.MessageID, errorText("generating plan", err))
		return
	}
	b.edit(chatID, sent.MessageID, formatPlan(sess))
}

func (b *Bot) handleShow(ctx context.Context, chatID int64) {
	sess, err := b.svc.CurrentSession(ctx)
	if err != nil {
		b.sendError(chatID, "loading plan", err)
		return
	}
	b.send(chatID, formatPlan(sess))
}

func (b *Bot) handleReplace(ctx context.Context, chatID int64, args string) {
	day, meal, err := parseReplaceArgs(args)
	if err != nil {
		b.send(chatID, "Usage: /replace <day> <breakfast|lunch|dinner>")
		return
	}
	scope, err := b.svc.ReplacementScope(ctx, day, meal)
	if err != nil {
		b.sendError(chatID, "replacing meal", err)
		return
	}
	if scope.Choice {
		text := fmt.Sprintf("*%s* is planned on %d days. Replace it on:", escapeMarkdown(scope.Current), len(scope.Shared))
		msg := b.markdown(chatID, text)
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Just "+domain.WeekDays[day], replaceCallback(day, meal, false)),
				tgbotapi.NewInlineKeyboardButtonData("All Days", replaceCallback(day, meal, true)),
			),
		)
		msg.ReplyMarkup = keyboard
		b.deliver(msg)
		return
	}
	b.replace(ctx, chatID, day, meal, false)
}

func (b *Bot) replace(ctx context.Context, chatID int64, day int, meal domain.MealType, all bool) {
	sess, err := b.svc.ReplaceMeal(ctx, day, meal, all)
	if err != nil {
		b.sendError(chatID, "replacing meal", err)
		return
	}
	b.send(chatID, formatPlan(sess))
}

func (b *Bot) handleAccept(ctx context.Context, chatID int64) {
	sent, err := b.api.Send(b.markdown(chatID, "🛒 *Building your shopping list...*"))
	if err != nil {
		b.logger.Warn("failed to send initial reply", zap.Error(err))
		return
	}
	sess, err := b.svc.AcceptPlan(ctx)
	if err != nil {
		b.edit(chatID, sent.MessageID, errorText("accepting plan", err))
		return
	}
	b.edit(chatID, sent.MessageID, formatShoppingList(*sess.ShoppingList, sess.Plan.WeekBudget))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	sess, err := b.svc.CurrentSession(ctx)
	if err != nil {
		b.sendError(chatID, "loading shopping list", err)
		return
	}
	if sess.ShoppingList == nil {
		b.send(chatID, "No shopping list yet. Use /accept once you like the plan.")
		return
	}
	b.send(chatID, formatShoppingList(*sess.ShoppingList, sess.Plan.WeekBudget))
}

func (b *Bot) handleRecipe(ctx context.Context, chatID int64, name string) {
	if name == "" {
		b.send(chatID, "Usage: /recipe <meal name>")
		return
	}
	r, err := b.svc.Recipe(ctx, name)
	if err != nil {
		b.sendError(chatID, "loading recipe", err)
		return
	}
	b.send(chatID, formatRecipe(r))
}

func (b *Bot) handlePrefetch(ctx context.Context, chatID int64) {
	report, err := b.svc.PrefetchRecipes(ctx)
	if err != nil {
		b.sendError(chatID, "prefetching recipes", err)
		return
	}
	text := fmt.Sprintf("📚 Cached %d of %d recipes in %d batches.", len(report.Fetched), len(report.Requested), report.Batches)
	for name := range report.Failed {
		text += "\n• failed: " + escapeMarkdown(name)
	}
	b.send(chatID, text)
}

func (b *Bot) handleQuick(ctx context.Context, chatID int64) {
	r, err := b.svc.QuickPantryMeal(ctx)
	if err != nil {
		b.sendError(chatID, "suggesting a meal", err)
		return
	}
	b.send(chatID, formatRecipe(r))
}

func (b *Bot) handlePantry(ctx context.Context, chatID int64) {
	items, err := b.svc.Pantry(ctx)
	if err != nil {
		b.sendError(chatID, "loading pantry", err)
		return
	}
	b.send(chatID, formatPantry(items))
}

func (b *Bot) handleBarcode(ctx context.Context, chatID int64, code string) {
	if code == "" {
		b.send(chatID, "Usage: /barcode <code>")
		return
	}
	item, err := b.svc.ScanBarcode(ctx, code)
	if err != nil {
		b.sendError(chatID, "adding product", err)
		return
	}
	b.send(chatID, "✅ Added "+formatItem(item))
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	photo := msg.Photo[len(msg.Photo)-1]
	img, err := b.download(ctx, photo.FileID)
	if err != nil {
		b.sendError(chatID, "downloading photo", err)
		return
	}
	found, err := b.svc.ScanPantryImage(ctx, img)
	if err != nil {
		b.sendError(chatID, "scanning photo", err)
		return
	}

	text := fmt.Sprintf("📷 Added %d items.", len(found.Accepted))
	if len(found.NeedsReview) == 0 {
		b.send(chatID, text)
		return
	}
	if _, err := b.sessions.Create(ctx, chatID, found.NeedsReview); err != nil {
		b.sendError(chatID, "saving review", err)
		return
	}
	out := b.markdown(chatID, text+"\n\n"+formatReview(found.NeedsReview))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Keep", "pending|keep"),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Discard", "pending|drop"),
		),
	)
	b.deliver(out)
}

func (b *Bot) download(ctx context.Context, fileID string) (llm.Image, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return llm.Image{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return llm.Image{}, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return llm.Image{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return llm.Image{}, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Image{}, err
	}
	return llm.Image{MIMEType: "image/jpeg", Data: data}, nil
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	// Answer callback to remove spinner
	_, _ = b.api.Request(tgbotapi.NewCallback(query.ID, ""))
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	cb, err := parseCallback(query.Data)
	if err != nil {
		b.logger.Warn("ignoring callback", zap.String("data", query.Data), zap.Error(err))
		return
	}

	switch cb.Action {
	case "replace":
		b.edit(chatID, query.Message.MessageID, "🔄 *Finding a replacement...*")
		b.replace(ctx, chatID, cb.Day, cb.Meal, cb.All)
	case "pending":
		b.resolveReview(ctx, chatID, query.Message.MessageID, cb.Keep)
	}
}

func (b *Bot) resolveReview(ctx context.Context, chatID int64, messageID int, keep bool) {
	s, err := b.sessions.GetActive(ctx, chatID)
	if err != nil {
		b.sendError(chatID, "loading review", err)
		return
	}
	if s == nil {
		b.edit(chatID, messageID, "⌛ This review has expired. Send the photo again.")
		return
	}
	if err := b.sessions.Delete(ctx, chatID); err != nil {
		b.logger.Warn("failed to delete review session", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	if !keep {
		b.edit(chatID, messageID, "🗑 Discarded.")
		return
	}
	if _, err := b.svc.AddPantryItems(ctx, s.Items...); err != nil {
		b.edit(chatID, messageID, errorText("adding items", err))
		return
	}
	b.edit(chatID, messageID, fmt.Sprintf("✅ Added %d items.", len(s.Items)))
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	var usage []metrics.DailyUsage
	if b.metricsStore != nil {
		var err error
		usage, err = b.metricsStore.GetDailyUsage(ctx, 7)
		if err != nil {
			b.send(chatID, "❌ Error fetching metrics.")
			return
		}
	}
	b.send(chatID, formatMetrics(usage, metrics.GetSysHealth(b.cfg.DataDir)))
}

func (b *Bot) markdown(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}

func (b *Bot) deliver(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("failed to send message", zap.Error(err))
	}
}

func (b *Bot) send(chatID int64, text string) {
	b.deliver(b.markdown(chatID, text))
}

func (b *Bot) sendPlain(chatID int64, text string) {
	b.deliver(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.deliver(edit)
}

func (b *Bot) sendError(chatID int64, action string, err error) {
	b.logger.Warn("command failed", zap.String("action", action), zap.Error(err))
	b.send(chatID, errorText(action, err))
}

func errorText(action string, err error) string {
	switch {
	case llm.IsTimeout(err):
		return "⏱ The assistant took too long while " + action + ". Please try again."
	case errors.Is(err, app.ErrNoProfile):
		return "👋 Set your household first with /profile <json>."
	case errors.Is(err, planner.ErrNoPlan):
		return "No plan yet. Use /plan to create one."
	}
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", action, safeErr)
}

type callback struct {
	Action string
	Day    int
	Meal   domain.MealType
	All    bool
	Keep   bool
}

func replaceCallback(day int, meal domain.MealType, all bool) string {
	scope := "one"
	if all {
		scope = "all"
	}
	return fmt.Sprintf("replace|%d|%s|%s", day, meal, scope)
}

// parseCallback decodes "replace|<day>|<meal>|one|all" and "pending|keep|drop".
func parseCallback(data string) (callback, error) {
	parts := strings.Split(data, "|")
	switch parts[0] {
	case "replace":
		if len(parts) != 4 {
			break
		}
		day, err := strconv.Atoi(parts[1])
		if err != nil || day < 0 || day >= domain.DaysPerPlan {
			return callback{}, fmt.Errorf("bad day in callback %q", data)
		}
		meal, err := domain.ParseMealType(parts[2])
		if err != nil {
			return callback{}, err
		}
		if parts[3] != "one" && parts[3] != "all" {
			break
		}
		return callback{Action: "replace", Day: day, Meal: meal, All: parts[3] == "all"}, nil
	case "pending":
		if len(parts) == 2 && (parts[1] == "keep" || parts[1] == "drop") {
			return callback{Action: "pending", Keep: parts[1] == "keep"}, nil
		}
	}
	return callback{}, fmt.Errorf("malformed callback %q", data)
}

func parseReplaceArgs(args string) (int, domain.MealType, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, "", errors.New("expected <day> <meal>")
	}
	day, err := domain.ParseDay(fields[0])
	if err != nil {
		return 0, "", err
	}
	meal, err := domain.ParseMealType(fields[1])
	if err != nil {
		return 0, "", err
	}
	return day, meal, nil
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown protects generated names from Telegram's legacy Markdown.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func formatPlan(sess planner.Session) string {
	if sess.Plan == nil {
		return "No plan yet. Use /plan to create one."
	}
	var sb strings.Builder
	sb.WriteString("📅 *Weekly Meal Plan*")
	switch sess.State() {
	case planner.StateAccepted:
		sb.WriteString(" ✅")
	case planner.StateModified:
		sb.WriteString(" ✏️")
	}
	fmt.Fprintf(&sb, "\nBudget: $%.2f\n\n", sess.Plan.WeekBudget)

	for _, d := range sess.Plan.Days {
		fmt.Fprintf(&sb, "*%s*\n", d.Day)
		for _, slot := range []domain.MealType{domain.Breakfast, domain.Lunch, domain.Dinner} {
			if name := d.Meals.Get(slot); name != "" {
				fmt.Fprintf(&sb, "• %s: %s\n", slot, escapeMarkdown(name))
			}
		}
		if len(d.Meals.Snacks) > 0 {
			fmt.Fprintf(&sb, "• Snacks: %s\n", escapeMarkdown(strings.Join(d.Meals.Snacks, ", ")))
		}
		sb.WriteString("\n")
	}
	if sess.ShoppingList == nil {
		sb.WriteString("_/accept to build the shopping list_")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatShoppingList(list domain.ShoppingList, budget float64) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	for _, sec := range list.Sections {
		fmt.Fprintf(&sb, "*%s*\n", escapeMarkdown(sec.Category))
		for _, it := range sec.Items {
			fmt.Fprintf(&sb, "• %s %s - $%.2f\n", escapeMarkdown(it.Quantity), escapeMarkdown(it.Name), it.Price)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "*Total:* $%.2f of $%.2f\n", list.TotalCost, budget)
	if list.UnderBudget {
		fmt.Fprintf(&sb, "✅ $%.2f under budget\n", list.Difference)
	} else {
		fmt.Fprintf(&sb, "⚠️ $%.2f over budget\n", -list.Difference)
	}
	if len(list.SavingTips) > 0 {
		sb.WriteString("\n💡 *Tips*\n")
		for _, tip := range list.SavingTips {
			fmt.Fprintf(&sb, "• %s\n", escapeMarkdown(tip))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatRecipe(r domain.Recipe) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍲 *%s*\n", escapeMarkdown(r.Name))
	if r.Servings > 0 {
		fmt.Fprintf(&sb, "Serves %d", r.Servings)
		if r.TotalTime != "" {
			fmt.Fprintf(&sb, " · %s", escapeMarkdown(r.TotalTime))
		}
		sb.WriteString("\n")
	}
	if r.Cost > 0 {
		fmt.Fprintf(&sb, "Cost: $%.2f\n", r.Cost)
	}
	sb.WriteString("\n*Ingredients*\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&sb, "• %s\n", escapeMarkdown(ing))
	}
	sb.WriteString("\n*Instructions*\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, escapeMarkdown(step))
	}
	if r.Tips != "" {
		fmt.Fprintf(&sb, "\n💡 %s\n", escapeMarkdown(r.Tips))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatItem(it domain.PantryItem) string {
	name := it.Name
	if it.Brand != "" {
		name += " (" + it.Brand + ")"
	}
	return fmt.Sprintf("%s × %s", escapeMarkdown(name), escapeMarkdown(it.Quantity))
}

func formatPantry(items []domain.PantryItem) string {
	if len(items) == 0 {
		return "🥫 Your pantry is empty. Send a photo or /barcode <code>."
	}
	var sb strings.Builder
	sb.WriteString("🥫 *Pantry*\n\n")
	for _, it := range items {
		mark := ""
		switch it.Status {
		case domain.StatusLowStock:
			mark = " ⚠️"
		case domain.StatusOutOfStock:
			mark = " ❌"
		}
		fmt.Fprintf(&sb, "• %s%s\n", formatItem(it), mark)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatReview(items []domain.PantryItem) string {
	var sb strings.Builder
	sb.WriteString("🤔 *Not sure about these:*\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "• %s (%d/10)\n", formatItem(it), it.Confidence)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
		if d.Failures > 0 {
			fmt.Fprintf(&sb, ", %d failed", d.Failures)
		}
		sb.WriteString(")\n")
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", metrics.FormatBytes(health.Data.Total))
	fmt.Fprintf(&sb, "• Saved Records: %d (%s)\n", health.Data.StoreRecords, metrics.FormatBytes(health.Data.Store))
	fmt.Fprintf(&sb, "• Database: %s", metrics.FormatBytes(health.Data.Database))
	return sb.String()
}

// formatDebugLog returns the last n lines. It is sent without parse mode.
func formatDebugLog(lines []string, n int) string {
	if len(lines) == 0 {
		return "Log is empty."
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := strings.Join(lines, "\n")
	const limit = 4000
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
