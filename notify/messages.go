package notify

import (
	"fmt"
	"strings"

	"ig_apify/models"
	"ig_apify/scraper"
)

const (
	IconIntent        = ":postbox:"
	IconDispatchError = ":fire_engine:"
	IconNothing       = ":checkered_flag:"
	IconFatal         = ":fire_engine:"
	IconIngestSummary = ":mailbox_with_mail:"
	IconIngestError   = ":mailbox_with_no_mail:"
	IconIngestFatal   = ":mailbox_closed:"
)

// Username is the bot name shown for a function's messages.
func Username(envName, function string) string {
	return fmt.Sprintf("[ %s - %s ]", envName, function)
}

// Intent announces a dispatch: how many of the eligible candidates are sent
// and, when exactly one program is in scope, which one.
func Intent(sent, eligible int, programIDs []int64, taskID string) string {
	program := ""
	if len(programIDs) == 1 {
		program = fmt.Sprintf(" %d", programIDs[0])
	}
	return fmt.Sprintf("Sending %d / %d records to apify%s\n%s", sent, eligible, program, scraper.RunsURL(taskID))
}

func DispatchError(taskID string, err error) string {
	return fmt.Sprintf("Could not send data to apify:\nID :: %s ::\nERROR TYPE :: %T ::\nERROR MESSAGE :: %s ::",
		taskID, err, errText(err))
}

func Nothing(n int) string {
	return fmt.Sprintf("No data to send to apify for now [%d]", n)
}

func Fatal(envName, taskID string, err error) string {
	return fmt.Sprintf("Catch Error:\nENV :: %s ::\nID :: %s ::\nERROR TYPE :: %T ::\nERROR MESSAGE :: %s ::",
		strings.ToUpper(envName), taskID, err, errText(err))
}

// IngestError reports the records of a batch that could not be written.
func IngestError(taskID string, s *models.IngestSummary, err error) string {
	return fmt.Sprintf("Could not update %d of %d records:\nID :: %s ::\nERROR MESSAGE :: %s ::",
		len(s.FailedKeys()), s.Records, taskID, errText(err))
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
