package scraper

import (
	"fmt"

	"ig_apify/models"
)

// ApifyTaskAdapter defines the task-specific part of a dispatch: which saved
// Apify task to run and what input it takes.
type ApifyTaskAdapter interface {
	TaskID() string
	BuildInput(directURLs []string) map[string]interface{}
}

// InstagramTaskAdapter drives the saved Instagram scraper tasks. Profile and
// post tasks take the same input shape; only the task id differs.
type InstagramTaskAdapter struct {
	taskID   string
	proxyURL string
}

func NewInstagramTaskAdapter(taskID, proxyURL string) *InstagramTaskAdapter {
	return &InstagramTaskAdapter{taskID: taskID, proxyURL: proxyURL}
}

// GetTaskAdapter returns the adapter for a campaign kind.
func GetTaskAdapter(kind models.Kind, profileTaskID, postTaskID, proxyURL string) (ApifyTaskAdapter, error) {
	switch kind {
	case models.KindProfile:
		return NewInstagramTaskAdapter(profileTaskID, proxyURL), nil
	case models.KindPost:
		return NewInstagramTaskAdapter(postTaskID, proxyURL), nil
	default:
		return nil, fmt.Errorf("unknown apify task kind: %s", kind)
	}
}

func (a *InstagramTaskAdapter) TaskID() string {
	return a.taskID
}

func (a *InstagramTaskAdapter) BuildInput(directURLs []string) map[string]interface{} {
	urls := make([]string, len(directURLs))
	copy(urls, directURLs)

	return map[string]interface{}{
		"search":      "Nature",
		"searchType":  "user",
		"directUrls":  urls,
		"resultsType": "details",
		"proxy": map[string]interface{}{
			"useApifyProxy": false,
			"proxyUrls":     []string{a.proxyURL},
			"proxyUrl":      a.proxyURL,
		},
		"expandOwners":         false,
		"extendOutputFunction": "($) => { return {} }",
	}
}

// RunsURL is the console page listing a task's runs.
func RunsURL(taskID string) string {
	return fmt.Sprintf("https://my.apify.com/tasks/%s#/runs", taskID)
}
