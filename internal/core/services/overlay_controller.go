package services

import (
	"context"
	"fmt"
	"sync"

	"srtalert/internal/core/domain"
	"srtalert/internal/core/ports"
	apperrors "srtalert/pkg/errors"

	"go.uber.org/zap"
)

// OverlayController shows and hides the warning source inside its scene.
// The scene item id is cached per remote session generation because OBS
// ids are only meaningful within one session.
type OverlayController struct {
	scenes  ports.SceneController
	session ports.SessionTracker
	target  domain.OverlayTarget
	metrics ports.AlertMetrics
	logger  *zap.SugaredLogger

	// mu serializes show/hide calls and guards the cache
	mu        sync.Mutex
	cached    bool
	cachedID  int64
	cachedGen uint64
}

// NewOverlayController creates a controller with an empty id cache
func NewOverlayController(
	scenes ports.SceneController,
	session ports.SessionTracker,
	target domain.OverlayTarget,
	logger *zap.SugaredLogger,
) *OverlayController {
	return &OverlayController{
		scenes:  scenes,
		session: session,
		target:  target,
		metrics: NopMetrics(),
		logger:  logger,
	}
}

// SetMetrics sets the metrics recorder
func (c *OverlayController) SetMetrics(m ports.AlertMetrics) {
	c.metrics = m
}

// ResolveElementID returns the scene item id of the warning source,
// enumerating the scene only when nothing is cached for the current session.
func (c *OverlayController) ResolveElementID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveLocked(ctx)
}

func (c *OverlayController) resolveLocked(ctx context.Context) (int64, error) {
	gen := c.session.Generation()
	if c.cached && c.cachedGen == gen {
		return c.cachedID, nil
	}
	c.cached = false

	items, err := c.scenes.ListSceneItems(ctx, c.target.SceneName)
	if err != nil {
		return 0, fmt.Errorf("failed to list items of scene %q: %w", c.target.SceneName, err)
	}

	for _, item := range items {
		if item.SourceName == c.target.SourceName {
			c.cached = true
			c.cachedID = item.SceneItemID
			c.cachedGen = gen
			c.logger.Debugw("resolved overlay source",
				"source", c.target.SourceName,
				"scene", c.target.SceneName,
				"scene_item_id", item.SceneItemID,
				"session", gen,
			)
			return item.SceneItemID, nil
		}
	}

	return 0, apperrors.NewElementNotFoundError(c.target.SourceName, c.target.SceneName)
}

// Invalidate drops the cached id
func (c *OverlayController) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = false
}

// SetVisible shows or hides the warning source. Errors are logged and
// swallowed; callers do not roll back their own state.
func (c *OverlayController) SetVisible(ctx context.Context, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	op := "hide"
	if visible {
		op = "show"
	}

	id, err := c.resolveLocked(ctx)
	if err != nil {
		c.metrics.IncOverlayError("resolve")
		c.logger.Errorw("error getting overlay source id",
			"error", err,
			"source", c.target.SourceName,
			"scene", c.target.SceneName,
			"element_not_found", apperrors.IsElementNotFound(err),
		)
		return
	}

	if err := c.scenes.SetSceneItemEnabled(ctx, c.target.SceneName, id, visible); err != nil {
		c.metrics.IncOverlayError(op)
		c.logger.Errorw("error toggling warning visibility",
			"error", err,
			"visible", visible,
			"scene_item_id", id,
		)
	}
}
