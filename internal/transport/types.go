package transport

import "context"

// MessageRef identifies a message the bot has sent.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// MediaKind enumerates the media shapes the gateway can deliver.
type MediaKind int

const (
	MediaPhoto MediaKind = iota
	MediaVideo
	MediaDocument
)

func (k MediaKind) String() string {
	switch k {
	case MediaPhoto:
		return "photo"
	case MediaVideo:
		return "video"
	case MediaDocument:
		return "document"
	default:
		return "unknown"
	}
}

// MediaItem is one media attachment, referenced by the platform asset id
// (re-sends never re-upload bytes).
type MediaItem struct {
	Kind     MediaKind
	AssetRef string
	Caption  string
}

// Options tunes an individual send. ReplyMarkup is adapter-specific
// (the Telegram adapter expects *tele.ReplyMarkup) and is built by the
// presentation layer, never by core logic.
type Options struct {
	ParseMode      string
	DisablePreview bool
	ReplyMarkup    any
}

// Gateway is the messaging transport the broadcast core sends through.
//
// Edit and Delete are best-effort; callers doing status-message cleanup
// are expected to ignore their errors.
type Gateway interface {
	SendText(ctx context.Context, chatID int64, text string, opt *Options) (MessageRef, error)
	SendMedia(ctx context.Context, chatID int64, item MediaItem, opt *Options) (MessageRef, error)
	SendMediaGroup(ctx context.Context, chatID int64, items []MediaItem) ([]MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string, opt *Options) error
	Delete(ctx context.Context, ref MessageRef) error
}
