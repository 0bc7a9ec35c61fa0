package activity

import "github.com/unifygtm/intent-go/intent/page"

// Track is the activity logged for a named custom event.
type Track struct {
	Name       string
	Properties map[string]any
}

func (Track) Type() EventType { return EventTypeTrack }
func (Track) Endpoint() string { return "/track" }

// Data merges the caller's properties over the current page properties,
// so every track event carries where it happened.
func (t Track) Data(ctx *Context) map[string]any {
	props := pageSnapshot(ctx, "")
	merged := map[string]any{
		"path":     props.Path,
		"query":    props.Query,
		"referrer": props.Referrer,
		"title":    props.Title,
		"url":      props.URL,
	}
	for key, value := range t.Properties {
		merged[key] = value
	}

	return map[string]any{
		"name":       t.Name,
		"properties": merged,
	}
}

func pageSnapshot(ctx *Context, pathOverride string) page.Properties {
	return page.Snapshot(ctx.View, pathOverride)
}
