package api

import (
	"bytes"
	stderrors "errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-lostfound/internal/notify"
	"github.com/gcbaptista/go-lostfound/internal/report"
	"github.com/gcbaptista/go-lostfound/model"
)

// GetMatchesHandler ranks records of the opposite type against one record.
// Query: top_k (optional, defaults to matcher.default_top_k)
func (api *API) GetMatchesHandler(c *gin.Context) {
	item, ok := api.loadItem(c, "itemId")
	if !ok {
		return
	}
	topK, ok := api.topK(c, api.settings.DefaultTopK)
	if !ok {
		return
	}

	set, err := api.matcher.FindMatches(c.Request.Context(), item, topK)
	if err != nil {
		SendServiceError(c, "find matches", err)
		return
	}

	c.JSON(http.StatusOK, set)
}

// GetReportHandler renders the plain-text match report of one record.
// Query: top_k (optional, defaults to matcher.default_top_k)
func (api *API) GetReportHandler(c *gin.Context) {
	item, ok := api.loadItem(c, "itemId")
	if !ok {
		return
	}
	topK, ok := api.topK(c, api.settings.DefaultTopK)
	if !ok {
		return
	}

	set, err := api.matcher.FindMatches(c.Request.Context(), item, topK)
	if err != nil {
		SendServiceError(c, "find matches", err)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, report.Build(item, set)); err != nil {
		SendInternalError(c, "render report", err)
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// NotifyMatchHandler tells the owner of matchId that itemId may be their item.
// The score sent is the one the matcher currently assigns to the pair.
func (api *API) NotifyMatchHandler(c *gin.Context) {
	source, ok := api.loadItem(c, "itemId")
	if !ok {
		return
	}
	target, ok := api.loadItem(c, "matchId")
	if !ok {
		return
	}
	if target.Type != source.Type.Opposite() {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest,
			"Item '"+target.ID+"' is not a "+string(source.Type.Opposite())+" item")
		return
	}

	set, err := api.matcher.FindMatches(c.Request.Context(), source, math.MaxInt)
	if err != nil {
		SendServiceError(c, "find matches", err)
		return
	}
	var match *model.MatchResult
	for i := range set.Matches {
		if set.Matches[i].ID == target.ID {
			match = &set.Matches[i]
			break
		}
	}
	if match == nil {
		SendRecordNotFoundError(c, target.ID)
		return
	}

	msg, err := api.notifier.Notify(c.Request.Context(), source, *match)
	if err != nil {
		if stderrors.Is(err, notify.ErrDisabled) {
			SendError(c, http.StatusServiceUnavailable, ErrorCodeNotificationsDisabled,
				"Notifications are disabled; the notice was not sent",
				ErrorDetail{Field: string(msg.Channel), Message: msg.To})
			return
		}
		SendServiceError(c, "notify", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Notification dispatched",
		"notification": msg,
		"score":        match.Score,
	})
}

// DashboardHandler matches every record of one type against the opposite corpus.
// Query: type (lost|found, defaults to lost), top_k (defaults to matcher.dashboard_top_k)
func (api *API) DashboardHandler(c *gin.Context) {
	itemType, result := ValidateItemType(c.Query("type"), false)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if itemType == "" {
		itemType = model.ItemTypeLost
	}
	topK, ok := api.topK(c, api.settings.DashboardTopK)
	if !ok {
		return
	}

	sets, err := api.matcher.Dashboard(c.Request.Context(), itemType, topK)
	if err != nil {
		SendServiceError(c, "dashboard", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":     itemType,
		"top_k":    topK,
		"strategy": api.matcher.StrategyName(),
		"results":  sets,
		"total":    len(sets),
	})
}

// topK reads the top_k query parameter. On failure the error response has already been sent.
func (api *API) topK(c *gin.Context, def int) (int, bool) {
	requested, result := ValidateTopK(c.Query("top_k"))
	if result.HasErrors() {
		SendValidationError(c, result)
		return 0, false
	}
	return api.settings.ClampTopK(requested, def), true
}
