// Package publish defines how finished night plans leave the scheduler.
package publish

import (
	"context"
	"errors"

	"github.com/kilianp07/skyplan/core/model"
)

// ErrPublishFailed is returned once every publish attempt has failed.
var ErrPublishFailed = errors.New("plan publish failed")

// NightMessage is the payload announced for each planned night.
type NightMessage struct {
	RunID  string        `json:"run_id"`
	Nite   string        `json:"nite"`
	Chunks []model.Chunk `json:"chunks"`
}

// Publisher announces night plans to downstream consumers.
type Publisher interface {
	PublishNight(ctx context.Context, runID string, plan model.NightPlan) error
	Close()
}

// NopPublisher discards every plan.
type NopPublisher struct{}

func (NopPublisher) PublishNight(context.Context, string, model.NightPlan) error { return nil }
func (NopPublisher) Close()                                                      {}
