package entities

import "reflect"

// Sender identifies which side of the conversation produced an item.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// ItemKind discriminates the payload carried by a conversation item.
type ItemKind string

const (
	KindText              ItemKind = "text"
	KindFlashcard         ItemKind = "flashcard"
	KindContactForm       ItemKind = "contact_form"
	KindContactFormSubmit ItemKind = "contact_form_submit"
	KindLocationRequest   ItemKind = "location_request"
	KindMapRoute          ItemKind = "map_route"
	KindGlobalPresence    ItemKind = "global_presence"
	KindNearbyOffices     ItemKind = "nearby_offices"
)

// ImageSpec describes a static image attached to a flashcard.
type ImageSpec struct {
	URL         string `json:"url"`
	Alt         string `json:"alt"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// SmartIcon references an animated or static icon by slug.
type SmartIcon struct {
	Type     string `json:"type"` // "animated" or "static"
	Ref      string `json:"ref"`
	Fallback string `json:"fallback,omitempty"`
}

// DynamicMedia describes media the card may resolve at render time.
type DynamicMedia struct {
	URLs        []string `json:"urls,omitempty"`
	Query       string   `json:"query,omitempty"`
	Source      string   `json:"source,omitempty"`
	AspectRatio string   `json:"aspectRatio,omitempty"`
	MediaType   string   `json:"mediaType,omitempty"`
}

// FlashcardData is the payload of a streamed visual card. Cards sharing a
// non-empty StreamID belong to one generation.
type FlashcardData struct {
	Title          string        `json:"title"`
	Value          string        `json:"value"`
	AccentColor    string        `json:"accentColor,omitempty"`
	Icon           string        `json:"icon,omitempty"`
	Theme          string        `json:"theme,omitempty"`
	Size           string        `json:"size,omitempty"`
	Layout         string        `json:"layout,omitempty"`
	Image          *ImageSpec    `json:"image,omitempty"`
	StreamID       string        `json:"stream_id,omitempty"`
	CardIndex      int           `json:"card_index"`
	VisualIntent   string        `json:"visual_intent,omitempty"`
	AnimationStyle string        `json:"animation_style,omitempty"`
	SmartIcon      *SmartIcon    `json:"smartIcon,omitempty"`
	Media          *DynamicMedia `json:"media,omitempty"`
}

// ContactFormData carries contact field values for previews and submits.
type ContactFormData struct {
	Name    string `json:"user_name,omitempty"`
	Email   string `json:"user_email,omitempty"`
	Phone   string `json:"user_phone,omitempty"`
	Details string `json:"contact_details,omitempty"`
}

// LocationRequestData explains why the agent asked for the user's location.
type LocationRequestData struct {
	Reason string `json:"reason,omitempty"`
}

// RouteData describes a rendered map route between two points.
type RouteData struct {
	Polyline    string `json:"polyline"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	TravelMode  string `json:"travelMode,omitempty"`
	Distance    string `json:"distance,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// GlobalPresenceData maps region and headquarter labels to descriptions.
type GlobalPresenceData struct {
	Regions      map[string]string `json:"regions"`
	Headquarters map[string]string `json:"headquarters"`
}

// Office is a single office location entry.
type Office struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	ImageURL string `json:"image_url"`
}

// NearbyOfficesData lists offices close to the user.
type NearbyOfficesData struct {
	Offices []Office `json:"offices"`
}

// Item is the unit of conversation state. Exactly one payload field is set,
// matching Kind. Timestamp is Unix milliseconds and governs display order.
type Item struct {
	ID        string   `json:"id"`
	Sender    Sender   `json:"sender"`
	Kind      ItemKind `json:"kind"`
	Timestamp int64    `json:"timestamp"`
	IsInterim bool     `json:"is_interim,omitempty"`

	Text            string               `json:"text,omitempty"`
	Card            *FlashcardData       `json:"card,omitempty"`
	ContactForm     *ContactFormData     `json:"contact_form,omitempty"`
	LocationRequest *LocationRequestData `json:"location_request,omitempty"`
	Route           *RouteData           `json:"route,omitempty"`
	GlobalPresence  *GlobalPresenceData  `json:"global_presence,omitempty"`
	NearbyOffices   *NearbyOfficesData   `json:"nearby_offices,omitempty"`
}

// Equal reports whether two items are field-for-field identical. Upserting
// an equal item must not count as a state change.
func (i Item) Equal(other Item) bool {
	return reflect.DeepEqual(i, other)
}

// IsEphemeral reports whether the item kind has a bounded lifetime enforced
// by a removal timer.
func (i Item) IsEphemeral() bool {
	return i.Kind == KindLocationRequest || i.Kind == KindContactFormSubmit
}
