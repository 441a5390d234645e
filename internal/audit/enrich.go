package audit

import (
	"context"

	"github.com/mssola/useragent"

	"govportal/pkg/requestcontext"
)

// enrich adds request correlation and client details without overwriting
// keys the caller set.
func enrich(ctx context.Context, detail map[string]any) {
	setIfAbsent(detail, "request_id", requestcontext.RequestID(ctx))
	setIfAbsent(detail, "ip", requestcontext.ClientIP(ctx))

	raw := requestcontext.UserAgent(ctx)
	if raw == "" {
		return
	}
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	if version != "" {
		browser += " " + version
	}
	setIfAbsent(detail, "browser", browser)
	setIfAbsent(detail, "os", ua.OS())
	if ua.Bot() {
		setIfAbsent(detail, "bot", true)
	}
}

func setIfAbsent(detail map[string]any, key string, value any) {
	if s, ok := value.(string); ok && s == "" {
		return
	}
	if _, exists := detail[key]; !exists {
		detail[key] = value
	}
}
