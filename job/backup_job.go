package job

// BackupJob pushes a copy of the sqlite database to the operator chats.
type BackupJob struct {
	tgbotService TelegramService
}

func NewBackupJob(tgbotService TelegramService) *BackupJob {
	return &BackupJob{tgbotService: tgbotService}
}

func (j *BackupJob) Run() {
	if !j.tgbotService.IsRunning() {
		return
	}
	j.tgbotService.SendBackupToAdmins()
}
