package boot

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"pbs/src/common"
	"pbs/src/db"
	"pbs/src/lib"
	awslib "pbs/src/lib/aws"
	"pbs/src/models"
	"pbs/src/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	gdb := db.GetDb()

	err := gdb.AutoMigrate(
		&models.User{},
		&models.Pitch{},
		&models.PitchAvailability{},
		&models.Booking{},
		&models.Payment{},
		&models.Review{},
		&models.Tournament{},
		&models.TournamentTeam{},
		&models.Message{},
		&models.MessageGroup{},
		&models.Promotion{},
		&models.Setting{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	// AutoMigrate cannot express an exclusion constraint. This is the
	// database-level guarantee that two racing transactions can never both
	// commit overlapping active bookings for a pitch.
	if err := gdb.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		log.Printf("Could not enable btree_gist: %s\n", err.Error())
		return gdb
	}
	constraint := `
DO $$ BEGIN
ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
	pitch_id WITH =,
	date WITH =,
	tsrange(date::timestamp + start_time::interval, date::timestamp + end_time::interval) WITH &&
) WHERE (status IN ('pending', 'confirmed') AND deleted_at IS NULL);
EXCEPTION WHEN duplicate_table OR duplicate_object THEN NULL;
END $$;`
	if err := gdb.Exec(constraint).Error; err != nil {
		log.Printf("Could not install overlap constraint: %s\n", err.Error())
	}

	return gdb
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateCronJob(func() {
		common.LogSweep(db.GetDb())
	}, 1*time.Hour); err != nil {
		log.Printf("Error scheduling sweep job: %s\n", err.Error())
	}
	if _, err := lib.CreateCronJob(SendBookingReminders, 1*time.Hour); err != nil {
		log.Printf("Error scheduling reminder job: %s\n", err.Error())
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}

// InitBroker starts the email consumer. Local environments read from kafka,
// deployed ones from SQS.
func InitBroker() {
	queue := utils.WithSuffix(os.Getenv("EMAIL_QUEUE"))
	if os.Getenv("API_ENV") == "local" {
		lib.KafkaConsumer("emails", queue, EmailHandlerFunc)
		return
	}
	consumer := awslib.NewSQSConsumer(queue, EmailHandlerFunc)
	consumer.Listen()
}

// EmailHandlerFunc delivers one queued email payload. SMTP locally, SES in
// deployed environments.
func EmailHandlerFunc(payload string) {
	var body map[string]any
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		log.Printf("Error parsing email payload: %s\n", err.Error())
		return
	}
	input := lib.SendMailInput{
		From:     stringValue(body["from"]),
		FromName: stringValue(body["from-name"]),
		To:       stringSlice(body["to"]),
		Cc:       stringSlice(body["cc"]),
		Bcc:      stringSlice(body["bcc"]),
		Subject:  stringValue(body["subject"]),
		Body:     stringValue(body["body"]),
	}
	if html, ok := body["html"].(bool); ok {
		input.Html = html
	}
	if os.Getenv("API_ENV") == "local" {
		if err := lib.SendMail(&input); err != nil {
			log.Printf("Error sending email: %s\n", err.Error())
		}
		return
	}
	bodyContent := &sestypes.Content{Data: aws.String(input.Body)}
	sesBody := &sestypes.Body{Text: bodyContent}
	if input.Html {
		sesBody = &sestypes.Body{Html: bodyContent}
	}
	awslib.SESSendMessage(
		aws.String(input.From),
		&sestypes.Destination{ToAddresses: input.To, CcAddresses: input.Cc, BccAddresses: input.Bcc},
		&sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(input.Subject)},
			Body:    sesBody,
		},
	)
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// SendBookingReminders emails players whose confirmed bookings start within
// the next 24 hours. A redis key per booking keeps reminders single-shot.
func SendBookingReminders() {
	gdb := db.GetDb()
	now := time.Now()
	tomorrow := now.AddDate(0, 0, 1)
	var bookings []models.Booking
	if err := gdb.
		Preload("Pitch").
		Preload("Player").
		Where("status = ?", "confirmed").
		Where("date >= ? AND date <= ?", now.Format("2006-01-02"), tomorrow.Format("2006-01-02")).
		Find(&bookings).
		Error; err != nil {
		log.Printf("Error loading bookings for reminders: %s\n", err.Error())
		return
	}
	for _, b := range bookings {
		if b.Player == nil || b.Pitch == nil {
			continue
		}
		if !common.ReminderDue(&b, now) {
			continue
		}
		if !common.ClaimReminder(b.ID) {
			continue
		}
		common.SendBookingReminder(&b)
	}
}
