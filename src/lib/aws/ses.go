package aws

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

var sesClient *ses.Client

func GetSESClient() *ses.Client {
	if sesClient != nil {
		return sesClient
	}
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Could not load default config: %s\n", err.Error())
		return nil
	}
	sesClient = ses.NewFromConfig(cfg)
	return sesClient
}

// SESSendMessage delivers one email through SES. Delivery is best effort,
// failures are logged and swallowed.
func SESSendMessage(from *string, destination *types.Destination, message *types.Message) {
	c := GetSESClient()
	if c == nil {
		return
	}
	out, err := c.SendEmail(context.TODO(), &ses.SendEmailInput{
		Source:      from,
		Destination: destination,
		Message:     message,
	})
	if err != nil {
		log.Printf("Error sending email: %s\n", err.Error())
		return
	}
	log.Printf("Sent email with id: %s\n", *out.MessageId)
}
