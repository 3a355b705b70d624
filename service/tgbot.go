package service

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"strconv"
	"strings"

	"roulette-bot/config"
	"roulette-bot/database"
	"roulette-bot/database/model"
	"roulette-bot/locale"
	"roulette-bot/logger"
	"roulette-bot/util/common"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"
	"go.uber.org/atomic"
)

var (
	bot        *telego.Bot
	botHandler *th.BotHandler
)

// Loading animations sent while the wheel result is being recorded, picked at
// random per spin.
var spinStickerIDs = []string{
	"CAACAgIAAxkBAAIDxWX-R5hGfI9xXb6Q-iJ2XG8275TfAAI-BQACx0LhSb86q20xK0-rMwQ",
	"CAACAgIAAxkBAAIBv2X3F9c_pS8i0tF5N0Q-vF0Jc-oUAAJPAgACVwJpS2rN0xV8dFm2MwQ",
	"CAACAgIAAxkBAAIB2GX3GNmXz18D2c9S-vF1X8X8ZgU9AALBAQACVwJpS_jH35KkK3y3MwQ",
}

const displayMinuteFormat = "02.01.2006 15:04"

// Tgbot receives every inbound event, consults the eligibility service and
// sends the outcome back to the user and the operators.
type Tgbot struct {
	cfg         *config.Config
	eligibility *EligibilityService
	isRunning   *atomic.Bool
}

func NewTgbot(cfg *config.Config, eligibility *EligibilityService) *Tgbot {
	return &Tgbot{
		cfg:         cfg,
		eligibility: eligibility,
		isRunning:   atomic.NewBool(false),
	}
}

func (t *Tgbot) I18nBot(name string, params ...string) string {
	return locale.I18n(name, params...)
}

func (t *Tgbot) Start() error {
	if err := locale.InitLocalizer(t.cfg.Language); err != nil {
		return err
	}

	var err error
	bot, err = t.NewBot(t.cfg.BotToken, t.cfg.TgProxy)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot API:", err)
		return err
	}

	err = bot.SetMyCommands(context.Background(), &telego.SetMyCommandsParams{
		Commands: []telego.BotCommand{
			{Command: "start", Description: t.I18nBot("commands.menuStart")},
			{Command: "help", Description: t.I18nBot("commands.menuHelp")},
			{Command: "id", Description: t.I18nBot("commands.menuID")},
		},
	})
	if err != nil {
		logger.Warning("Failed to set bot commands:", err)
	}

	if !t.isRunning.Load() {
		logger.Info("Telegram bot receiver started")
		go t.OnReceive()
		t.isRunning.Store(true)
	}

	return nil
}

// NewBot builds the bot client, optionally routed through a socks5 proxy.
func (t *Tgbot) NewBot(token string, proxyUrl string) (*telego.Bot, error) {
	if proxyUrl == "" {
		return telego.NewBot(token)
	}

	if !strings.HasPrefix(proxyUrl, "socks5://") {
		logger.Warning("Invalid socks5 URL, using default")
		return telego.NewBot(token)
	}

	_, err := url.Parse(proxyUrl)
	if err != nil {
		logger.Warningf("Can't parse proxy URL, using default instance for tgbot: %v", err)
		return telego.NewBot(token)
	}

	return telego.NewBot(token, telego.WithFastHTTPClient(&fasthttp.Client{
		Dial: fasthttpproxy.FasthttpSocksDialer(proxyUrl),
	}))
}

func (t *Tgbot) IsRunning() bool {
	return t.isRunning.Load()
}

func (t *Tgbot) Stop() {
	if botHandler != nil {
		botHandler.Stop()
	}
	logger.Info("Stop Telegram receiver ...")
	t.isRunning.Store(false)
}

func (t *Tgbot) OnReceive() {
	defer common.Recover("telegram receive loop")

	params := telego.GetUpdatesParams{
		Timeout: 10,
	}

	updates, _ := bot.UpdatesViaLongPolling(context.Background(), &params)

	botHandler, _ = th.NewBotHandler(bot, updates)

	botHandler.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		t.onSpinSubmission(&message)
		return nil
	}, withWebAppData())

	botHandler.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		t.answerCommand(&message, message.Chat.ID, t.isAdmin(message.From.ID))
		return nil
	}, th.AnyCommand())

	botHandler.HandleCallbackQuery(func(ctx *th.Context, query telego.CallbackQuery) error {
		t.answerCallback(&query)
		return nil
	}, th.AnyCallbackQueryWithMessage())

	botHandler.Start()
}

// withWebAppData matches messages produced by the wheel mini-app keyboard
// button.
func withWebAppData() th.Predicate {
	return func(ctx context.Context, update telego.Update) bool {
		return update.Message != nil && update.Message.WebAppData != nil
	}
}

func (t *Tgbot) isAdmin(userId int64) bool {
	for _, adminId := range t.cfg.AdminIDs {
		if userId == adminId {
			return true
		}
	}
	return false
}

func (t *Tgbot) answerCommand(message *telego.Message, chatId int64, isAdmin bool) {
	command, _, commandArgs := tu.ParseCommand(message.Text)

	// Operator identity is checked per command; a non-operator issuing an
	// administrative command gets the unknown-command reply and no state
	// changes.
	switch command {
	case "start":
		t.sendStartFlow(chatId, message.From.ID, profileFromUser(message.From))
	case "help":
		t.SendMsgToTgbot(chatId, t.I18nBot("commands.help"))
	case "id":
		t.SendMsgToTgbot(chatId, t.I18nBot("commands.getID", "ID=="+strconv.FormatInt(message.From.ID, 10)))
	case "stats":
		if !isAdmin {
			t.SendMsgToTgbot(chatId, t.I18nBot("commands.unknown"))
			return
		}
		if len(commandArgs) == 1 {
			userId, err := strconv.ParseInt(commandArgs[0], 10, 64)
			if err != nil {
				t.SendMsgToTgbot(chatId, t.I18nBot("admin.badArgument"))
				return
			}
			t.sendUserStats(chatId, userId)
			return
		}
		t.sendStats(chatId)
	case "reset":
		if !isAdmin {
			t.SendMsgToTgbot(chatId, t.I18nBot("commands.unknown"))
			return
		}
		if len(commandArgs) != 1 {
			t.SendMsgToTgbot(chatId, t.I18nBot("admin.badArgument"))
			return
		}
		userId, err := strconv.ParseInt(commandArgs[0], 10, 64)
		if err != nil {
			t.SendMsgToTgbot(chatId, t.I18nBot("admin.badArgument"))
			return
		}
		if err := t.eligibility.ResetUser(userId); err != nil {
			logger.Error("reset participant failed:", err)
			t.SendMsgToTgbot(chatId, t.I18nBot("admin.opFailed", "Error=="+err.Error()))
			return
		}
		t.SendMsgToTgbot(chatId, t.I18nBot("admin.resetDone", "ID=="+commandArgs[0]))
	case "resetme":
		if !isAdmin {
			t.SendMsgToTgbot(chatId, t.I18nBot("commands.unknown"))
			return
		}
		if err := t.eligibility.ResetUser(message.From.ID); err != nil {
			logger.Error("self reset failed:", err)
			t.SendMsgToTgbot(chatId, t.I18nBot("admin.opFailed", "Error=="+err.Error()))
			return
		}
		t.SendMsgToTgbot(chatId, t.I18nBot("admin.resetDone", "ID=="+strconv.FormatInt(message.From.ID, 10)))
	case "resetall":
		if !isAdmin {
			t.SendMsgToTgbot(chatId, t.I18nBot("commands.unknown"))
			return
		}
		if err := t.eligibility.ResetAll(); err != nil {
			logger.Error("reset all failed:", err)
			t.SendMsgToTgbot(chatId, t.I18nBot("admin.opFailed", "Error=="+err.Error()))
			return
		}
		t.SendMsgToTgbot(chatId, t.I18nBot("admin.resetAllDone"))
	default:
		t.SendMsgToTgbot(chatId, t.I18nBot("commands.unknown"))
	}
}

// sendStartFlow answers a start-like event with exactly one of: the rules
// prompt, the subscribe prompt, the cooldown notice or the spin invitation.
func (t *Tgbot) sendStartFlow(chatId int64, userId int64, profile Profile) {
	subscribed := t.checkMembership(userId)

	decision, err := t.eligibility.CheckAccess(userId, subscribed)
	if err != nil {
		logger.Errorf("eligibility probe failed for user %d: %v", userId, err)
		t.SendMsgToTgbot(chatId, t.I18nBot("spin.storageError"))
		return
	}

	switch decision.Access {
	case AccessMustAgree:
		t.SendMsgToTgbot(chatId, t.I18nBot("rules"), t.agreeKeyboard())
	case AccessMustSubscribe:
		t.SendMsgToTgbot(chatId, t.I18nBot("start.subscribe"), t.subscribeKeyboard())
	case AccessCooldown:
		reopens := decision.ReopensAt.Format(displayMinuteFormat)
		t.SendMsgToTgbot(chatId, t.I18nBot("start.cooldown", "ReopensAt=="+reopens))
	case AccessEligible:
		t.SendMsgToTgbot(chatId, t.I18nBot("start.ready"), t.spinKeyboard())
	}
}

func (t *Tgbot) answerCallback(query *telego.CallbackQuery) {
	chatId := query.Message.GetChat().ID
	profile := profileFromUser(&query.From)

	switch query.Data {
	case "agree":
		if err := t.eligibility.SetAgreed(query.From.ID, profile); err != nil {
			logger.Errorf("set agreed failed for user %d: %v", query.From.ID, err)
			t.sendCallbackAnswer(query.ID, t.I18nBot("spin.storageError"))
			return
		}
		// Take the accept button off the rules message.
		_, err := bot.EditMessageReplyMarkup(context.Background(), &telego.EditMessageReplyMarkupParams{
			ChatID:    tu.ID(chatId),
			MessageID: query.Message.GetMessageID(),
		})
		if err != nil {
			logger.Debug("clear rules keyboard:", err)
		}
		t.sendCallbackAnswer(query.ID, "")
		t.sendStartFlow(chatId, query.From.ID, profile)
	case "checksub":
		t.sendCallbackAnswer(query.ID, "")
		t.sendStartFlow(chatId, query.From.ID, profile)
	default:
		t.sendCallbackAnswer(query.ID, "")
	}
}

// ParsePrizePayload extracts the prize label from the mini-app payload
// `{"prize": "..."}`. A payload it rejects never reaches the store.
func ParsePrizePayload(data string) (string, error) {
	var payload struct {
		Prize string `json:"prize"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return "", err
	}
	prize := strings.TrimSpace(payload.Prize)
	if prize == "" {
		return "", common.NewError("spin payload carries no prize")
	}
	return prize, nil
}

// onSpinSubmission handles the mini-app result. Malformed payloads never
// reach the store; duplicates are discarded without an operator report.
func (t *Tgbot) onSpinSubmission(message *telego.Message) {
	chatId := message.Chat.ID
	user := message.From
	profile := profileFromUser(user)

	prize, err := ParsePrizePayload(message.WebAppData.Data)
	if err != nil {
		logger.Warningf("malformed spin payload from user %d: %v", user.ID, err)
		t.SendMsgToTgbot(chatId, t.I18nBot("spin.parseError"))
		return
	}

	spin, decision, err := t.eligibility.RecordSpin(user.ID, profile, prize)
	if err != nil {
		logger.Errorf("record spin failed for user %d: %v", user.ID, err)
		t.SendMsgToTgbot(chatId, t.I18nBot("spin.storageError"))
		return
	}

	if spin == nil {
		if decision.Access == AccessMustAgree {
			// Submission from an account that never accepted the rules;
			// restart the flow instead of recording anything.
			t.SendMsgToTgbot(chatId, t.I18nBot("rules"), t.agreeKeyboard())
			return
		}
		t.SendMsgToTgbot(chatId, t.I18nBot("spin.duplicate"), tu.ReplyKeyboardRemove())
		return
	}

	// The drum roll plays only for an accepted spin; a duplicate submitter
	// should not see the animation before being told nothing happened.
	t.sendSpinSticker(chatId)

	if spin.IsLoss {
		t.SendMsgToTgbot(chatId, t.I18nBot("spin.loss", "Prize=="+spin.Prize), tu.ReplyKeyboardRemove())
	} else {
		t.SendMsgToTgbot(chatId,
			t.I18nBot("spin.win", "Prize=="+spin.Prize, "ClaimCode=="+spin.ClaimCode),
			tu.ReplyKeyboardRemove())
	}

	t.reportSpin(spin)
}

func (t *Tgbot) sendStats(chatId int64) {
	total, recent, err := t.eligibility.Stats(10)
	if err != nil {
		logger.Error("load stats failed:", err)
		t.SendMsgToTgbot(chatId, t.I18nBot("admin.opFailed", "Error=="+err.Error()))
		return
	}
	if total == 0 {
		t.SendMsgToTgbot(chatId, t.I18nBot("stats.empty"))
		return
	}

	msg := t.I18nBot("stats.header", "Total=="+strconv.FormatInt(total, 10))
	for _, spin := range recent {
		msg += "\n" + t.I18nBot("stats.entry",
			"Date=="+spin.SpunAt.Format(displayMinuteFormat),
			"Name=="+spin.DisplayName,
			"Username=="+spin.Username,
			"Prize=="+spin.Prize,
		)
	}
	t.SendMsgToTgbot(chatId, msg)
}

// sendUserStats lists every audited spin of one participant.
func (t *Tgbot) sendUserStats(chatId int64, userId int64) {
	spins, err := t.eligibility.SpinsOf(userId)
	if err != nil {
		logger.Error("load participant stats failed:", err)
		t.SendMsgToTgbot(chatId, t.I18nBot("admin.opFailed", "Error=="+err.Error()))
		return
	}
	id := strconv.FormatInt(userId, 10)
	if len(spins) == 0 {
		t.SendMsgToTgbot(chatId, t.I18nBot("stats.userEmpty", "ID=="+id))
		return
	}

	msg := t.I18nBot("stats.userHeader", "ID=="+id, "Total=="+strconv.Itoa(len(spins)))
	for _, spin := range spins {
		msg += "\n" + t.I18nBot("stats.entry",
			"Date=="+spin.SpunAt.Format(displayMinuteFormat),
			"Name=="+spin.DisplayName,
			"Username=="+spin.Username,
			"Prize=="+spin.Prize,
		)
	}
	t.SendMsgToTgbot(chatId, msg)
}

// checkMembership resolves the subscription gate. Absence of a configured
// channel degrades the check to always-pass; oracle failures resolve to the
// configured fail-open/fail-closed policy.
func (t *Tgbot) checkMembership(userId int64) bool {
	subscribed, err := t.isSubscribed(userId)
	if err != nil {
		logger.Warningf("membership check failed for user %d: %v", userId, err)
	}
	return subscribed
}

func (t *Tgbot) isSubscribed(userId int64) (bool, error) {
	if t.cfg.ChannelID == "" {
		return true, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.OracleTimeout)
	defer cancel()

	member, err := bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: t.channelChatID(),
		UserID: userId,
	})
	if err != nil {
		return t.cfg.OracleFailOpen, err
	}

	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator, telego.MemberStatusMember:
		return true, nil
	default:
		return false, nil
	}
}

func (t *Tgbot) channelChatID() telego.ChatID {
	if id, err := strconv.ParseInt(t.cfg.ChannelID, 10, 64); err == nil {
		return tu.ID(id)
	}
	name := t.cfg.ChannelID
	if !strings.HasPrefix(name, "@") {
		name = "@" + name
	}
	return tu.Username(name)
}

func (t *Tgbot) agreeKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(t.I18nBot("buttons.agree")).WithCallbackData("agree"),
		),
	)
}

func (t *Tgbot) subscribeKeyboard() *telego.InlineKeyboardMarkup {
	rows := [][]telego.InlineKeyboardButton{}
	if channel := strings.TrimPrefix(t.cfg.ChannelID, "@"); channel != "" {
		if _, err := strconv.ParseInt(channel, 10, 64); err != nil {
			rows = append(rows, tu.InlineKeyboardRow(
				tu.InlineKeyboardButton(t.I18nBot("buttons.channel")).WithURL("https://t.me/"+channel),
			))
		}
	}
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton(t.I18nBot("buttons.checkSub")).WithCallbackData("checksub"),
	))
	return tu.InlineKeyboard(rows...)
}

func (t *Tgbot) spinKeyboard() *telego.ReplyKeyboardMarkup {
	return tu.Keyboard(
		tu.KeyboardRow(
			tu.KeyboardButton(t.I18nBot("buttons.spin")).WithWebApp(&telego.WebAppInfo{URL: t.cfg.WebAppURL}),
		),
	).WithResizeKeyboard().WithOneTimeKeyboard()
}

func (t *Tgbot) sendSpinSticker(chatId int64) {
	stickerId := common.PickString(spinStickerIDs)
	if stickerId == "" {
		return
	}
	_, err := bot.SendSticker(context.Background(), tu.Sticker(tu.ID(chatId), tu.FileFromID(stickerId)))
	if err != nil {
		logger.Debug("send spin sticker:", err)
	}
}

// reportSpin notifies every operator about an accepted spin.
func (t *Tgbot) reportSpin(spin *model.Spin) {
	var msg string
	if spin.IsLoss {
		msg = t.I18nBot("report.newLoss",
			"Name=="+spin.DisplayName,
			"Username=="+spin.Username,
			"Prize=="+spin.Prize,
			"Date=="+spin.SpunAt.Format(displayMinuteFormat),
		)
	} else {
		msg = t.I18nBot("report.newSpin",
			"Name=="+spin.DisplayName,
			"Username=="+spin.Username,
			"Prize=="+spin.Prize,
			"ClaimCode=="+spin.ClaimCode,
			"Date=="+spin.SpunAt.Format(displayMinuteFormat),
		)
	}
	t.SendMsgToTgbotAdmins(msg)
}

func (t *Tgbot) SendMsgToTgbot(chatId int64, msg string, replyMarkup ...telego.ReplyMarkup) {
	params := tu.Message(tu.ID(chatId), msg).WithParseMode(telego.ModeHTML)
	if len(replyMarkup) > 0 {
		params = params.WithReplyMarkup(replyMarkup[0])
	}
	if _, err := bot.SendMessage(context.Background(), params); err != nil {
		logger.Warning("Error sending telegram message:", err)
	}
}

func (t *Tgbot) SendMsgToTgbotAdmins(msg string) {
	for _, adminId := range t.cfg.AdminIDs {
		t.SendMsgToTgbot(adminId, msg)
	}
}

// SendBackupToAdmins checkpoints the database and pushes the file to every
// operator chat.
func (t *Tgbot) SendBackupToAdmins() {
	if err := database.Checkpoint(); err != nil {
		logger.Error("database checkpoint failed:", err)
		return
	}
	for _, adminId := range t.cfg.AdminIDs {
		file, err := os.Open(t.cfg.DBPath)
		if err != nil {
			logger.Error("open database for backup:", err)
			return
		}
		document := tu.Document(tu.ID(adminId), tu.File(file)).
			WithCaption(t.I18nBot("job.backupCaption"))
		if _, err := bot.SendDocument(context.Background(), document); err != nil {
			logger.Warning("Error sending database backup:", err)
		}
		file.Close()
	}
}

func (t *Tgbot) sendCallbackAnswer(queryId string, text string) {
	answer := tu.CallbackQuery(queryId)
	if text != "" {
		answer = answer.WithText(text)
	}
	if err := bot.AnswerCallbackQuery(context.Background(), answer); err != nil {
		logger.Warning("Error answering callback query:", err)
	}
}

func profileFromUser(user *telego.User) Profile {
	if user == nil {
		return Profile{}
	}
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	return Profile{
		DisplayName: name,
		Username:    user.Username,
	}
}
