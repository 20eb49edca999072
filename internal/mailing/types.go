package mailing

import (
	"time"

	"giftbot/internal/transport"
)

// Phase is the single mutually-exclusive state of a mailing session.
type Phase int

const (
	// PhaseContent: waiting for the post body (text, media, or media group).
	PhaseContent Phase = iota
	// PhaseButtonChoice: content captured, waiting for add-button yes/no.
	PhaseButtonChoice
	// PhaseButtonKind: waiting for link vs in-app choice.
	PhaseButtonKind
	// PhaseButtonLabel: waiting for the button label text.
	PhaseButtonLabel
	// PhaseButtonTarget: waiting for the link URL.
	PhaseButtonTarget
	// PhaseConfirm: preview shown, waiting for confirm/cancel.
	PhaseConfirm
)

func (p Phase) String() string {
	switch p {
	case PhaseContent:
		return "content"
	case PhaseButtonChoice:
		return "button_choice"
	case PhaseButtonKind:
		return "button_kind"
	case PhaseButtonLabel:
		return "button_label"
	case PhaseButtonTarget:
		return "button_target"
	case PhaseConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// ContentKind tags the Content variant.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentText
	ContentPhoto
	ContentVideo
	ContentDocument
	ContentMediaGroup
)

// Content is the finalized post body of a mailing.
type Content struct {
	Kind ContentKind

	Text  string                // ContentText
	Item  transport.MediaItem   // single-media kinds
	Items []transport.MediaItem // ContentMediaGroup, in arrival order
}

func textContent(body string) Content { return Content{Kind: ContentText, Text: body} }

func mediaContent(item transport.MediaItem) Content {
	kind := ContentPhoto
	switch item.Kind {
	case transport.MediaVideo:
		kind = ContentVideo
	case transport.MediaDocument:
		kind = ContentDocument
	}
	return Content{Kind: kind, Item: item}
}

func groupContent(items []transport.MediaItem) Content {
	return Content{Kind: ContentMediaGroup, Items: items}
}

// GroupCaption returns the caption of a media group: the last non-empty
// caption among its items, or "" if none carries one.
func (c Content) GroupCaption() string {
	caption := ""
	for _, it := range c.Items {
		if it.Caption != "" {
			caption = it.Caption
		}
	}
	return caption
}

// groupForSend lays the group out the way it goes on the wire: the derived
// caption rides on the first item, all other captions are dropped.
func (c Content) groupForSend() []transport.MediaItem {
	out := make([]transport.MediaItem, len(c.Items))
	copy(out, c.Items)
	caption := c.GroupCaption()
	for i := range out {
		out[i].Caption = ""
	}
	if len(out) > 0 {
		out[0].Caption = caption
	}
	return out
}

// ButtonKind distinguishes plain links from in-app (web-app) buttons.
type ButtonKind int

const (
	ButtonLink ButtonKind = iota
	ButtonWebApp
)

// Button is the optional interactive button attached below a post.
type Button struct {
	Kind   ButtonKind
	Label  string
	Target string
}

// DeliveryReport summarizes one finished broadcast run.
// BlockedOrUnreachable is a subset of Failed; Succeeded+Failed == Total.
type DeliveryReport struct {
	RunID                string
	Total                int
	Succeeded            int
	Failed               int
	BlockedOrUnreachable int
	Elapsed              time.Duration
}

// SuccessRate is Succeeded/Total, or 0 for an empty run.
func (r DeliveryReport) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Total)
}
