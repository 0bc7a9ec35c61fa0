package activity

// PageView is the activity logged when the visitor views a page.
type PageView struct {
	// Pathname, when set, replaces the current pathname in the logged
	// page properties, e.g. "/some-custom-page/v1".
	Pathname string
}

func (PageView) Type() EventType { return EventTypePage }
func (PageView) Endpoint() string { return "/page" }

func (p PageView) Data(ctx *Context) map[string]any {
	return map[string]any{
		"properties": pageSnapshot(ctx, p.Pathname),
	}
}
