package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/model"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/world"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityTracker records the thin history kinds: session joins/leaves,
// chat, commands, and sign edits. None of these replay against the world;
// they exist for lookups.
type ActivityTracker struct {
	d Deps
}

// NewActivityTracker creates an ActivityTracker.
func NewActivityTracker(d Deps) *ActivityTracker { return &ActivityTracker{d: d} }

// LogSession records a join (joined=true) or leave at the player's
// position.
func (t *ActivityTracker) LogSession(ctx context.Context, actor world.Actor, worldName string, pos world.Vec3, joined bool) error {
	act := action.SessionLeft
	if joined {
		act = action.SessionJoin
	}
	return t.d.Store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := t.d.Store.EnsureEntity(tx, actor); err != nil {
			return err
		}
		id, err := t.d.Store.InsertHistory(tx, actor.UUID, pos, worldName, act, time.Now())
		if err != nil {
			return err
		}
		// Session rows carry no payload; an empty chat detail keeps the
		// one-detail-per-entry invariant.
		return createChatDetail(tx, id, "")
	})
}

// LogChat records a chat message.
func (t *ActivityTracker) LogChat(ctx context.Context, actor world.Actor, worldName string, pos world.Vec3, message string) error {
	return t.logMessage(ctx, actor, worldName, pos, message, action.Chat)
}

// LogCommand records an issued command.
func (t *ActivityTracker) LogCommand(ctx context.Context, actor world.Actor, worldName string, pos world.Vec3, command string) error {
	return t.logMessage(ctx, actor, worldName, pos, command, action.Command)
}

func (t *ActivityTracker) logMessage(ctx context.Context, actor world.Actor, worldName string, pos world.Vec3, message string, act action.Action) error {
	return t.d.Store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := t.d.Store.EnsureEntity(tx, actor); err != nil {
			return err
		}
		id, err := t.d.Store.InsertHistory(tx, actor.UUID, pos, worldName, act, time.Now())
		if err != nil {
			return err
		}
		return createChatDetail(tx, id, message)
	})
}

// LogSignText records the lines written to a sign as an UPDATE row.
func (t *ActivityTracker) LogSignText(ctx context.Context, actor world.Actor, worldName string, pos world.Vec3, lines []string) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("tracking: encode sign lines: %w", err)
	}
	return t.d.Store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := t.d.Store.EnsureEntity(tx, actor); err != nil {
			return err
		}
		id, err := t.d.Store.InsertHistory(tx, actor.UUID, pos, worldName, action.Update, time.Now())
		if err != nil {
			return err
		}
		detail := model.SignLog{LogID: id, Lines: datatypes.JSON(payload)}
		if err := tx.Create(&detail).Error; err != nil {
			return fmt.Errorf("%w: insert sign detail: %v", store.ErrStorage, err)
		}
		return nil
	})
}

func createChatDetail(tx *gorm.DB, logID int64, message string) error {
	detail := model.ChatLog{LogID: logID, Message: message}
	if err := tx.Create(&detail).Error; err != nil {
		return fmt.Errorf("%w: insert chat detail: %v", store.ErrStorage, err)
	}
	return nil
}
