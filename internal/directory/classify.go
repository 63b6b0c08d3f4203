package directory

import "context"

// Kind is the resource family a conversation name belongs to.
type Kind int

const (
	// KindPublicChannel is a name present in the channels listing.
	KindPublicChannel Kind = iota
	// KindPrivateGroup is a name present in the groups listing.
	KindPrivateGroup
	// KindDirectMessage is a name present in neither listing.
	KindDirectMessage
)

func (k Kind) String() string {
	switch k {
	case KindPublicChannel:
		return "channel"
	case KindPrivateGroup:
		return "group"
	default:
		return "im"
	}
}

// Classification is the result of resolving a conversation name. ID is empty
// for direct messages.
type Classification struct {
	Kind Kind
	ID   string
}

// Classify resolves name against the channel and group tables in turn. A
// missing key triggers a refresh of the table being consulted, so a name in
// neither table has been checked against current listings before it is
// declared a direct-message target.
func (d *Directory) Classify(ctx context.Context, name string) Classification {
	if id, ok := d.ChannelID(ctx, name, false); ok {
		return Classification{Kind: KindPublicChannel, ID: id}
	}
	if id, ok := d.GroupID(ctx, name, false); ok {
		return Classification{Kind: KindPrivateGroup, ID: id}
	}
	return Classification{Kind: KindDirectMessage}
}
