package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hangmantrainer/internal/models"
)

// SheetsCollector posts results to the spreadsheet ingestion endpoint as a form
type SheetsCollector struct {
	endpoint string
	client   *http.Client
}

func NewSheetsCollector(endpoint string, client *http.Client) *SheetsCollector {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SheetsCollector{endpoint: endpoint, client: client}
}

func (c *SheetsCollector) Name() string {
	return "sheets"
}

type sheetsReply struct {
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

// FormValues encodes a result as the endpoint's form fields
func FormValues(r models.LevelResult) url.Values {
	return url.Values{
		"employeeId":    {r.EmployeeID},
		"level":         {strconv.Itoa(r.Level)},
		"word":          {r.Word},
		"completed":     {strconv.FormatBool(r.Completed)},
		"gameCompleted": {strconv.FormatBool(r.GameCompleted)},
		"exitedEarly":   {strconv.FormatBool(r.ExitedEarly)},
		"attemptsUsed":  {strconv.Itoa(r.AttemptsUsed)},
		"startTime":     {models.FormatISO(r.StartTime)},
		"endTime":       {models.FormatISO(r.EndTime)},
	}
}

func (c *SheetsCollector) Collect(ctx context.Context, result models.LevelResult) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(FormValues(result).Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var reply sheetsReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&reply); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	if reply.Error != "" {
		return fmt.Errorf("endpoint error: %s", reply.Error)
	}
	if !reply.Success {
		return fmt.Errorf("endpoint did not confirm success")
	}
	return nil
}
