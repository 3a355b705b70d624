package job

import (
	"strconv"
	"time"

	"roulette-bot/database"
	"roulette-bot/logger"
)

// TelegramService is the slice of the bot the jobs need, so the job package
// does not depend on the bot implementation.
type TelegramService interface {
	IsRunning() bool
	I18nBot(name string, params ...string) string
	SendMsgToTgbotAdmins(msg string)
	SendBackupToAdmins()
}

// StatsNotifyJob pushes a daily spin digest to the operator chats.
type StatsNotifyJob struct {
	tgbotService TelegramService
}

func NewStatsNotifyJob(tgbotService TelegramService) *StatsNotifyJob {
	return &StatsNotifyJob{tgbotService: tgbotService}
}

func (j *StatsNotifyJob) Run() {
	if !j.tgbotService.IsRunning() {
		return
	}

	total, err := database.CountSpins()
	if err != nil {
		logger.Warning("stats digest: count spins failed:", err)
		return
	}
	day, err := database.CountSpinsSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		logger.Warning("stats digest: count recent spins failed:", err)
		return
	}

	msg := j.tgbotService.I18nBot("job.digest",
		"Day=="+strconv.FormatInt(day, 10),
		"Total=="+strconv.FormatInt(total, 10),
	)
	j.tgbotService.SendMsgToTgbotAdmins(msg)
}
