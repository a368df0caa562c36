package usecase

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/induslabs/concierge/domain/entities"
	"github.com/induslabs/concierge/domain/repositories"
)

// Inbound topics. Topic dispatch takes precedence over the payload type
// field when both are present.
const (
	TopicFlashcard       = "ui.flashcard"
	TopicText            = "ui.text"
	TopicUserDetails     = "user.details"
	TopicLocationRequest = "ui.location_request"
	TopicContactForm     = "ui.contact_form"
	TopicGlobalPresence  = "ui.global_presence"
	TopicNearbyOffices   = "ui.nearby_offices"
)

// Payload type values recognized on the data channel.
const (
	typeFlashcard         = "flashcard"
	typeEndOfStream       = "end_of_stream"
	typeAgentChat         = "agent_chat"
	typeMapPolyline       = "map.polyline"
	typeLocationRequest   = "location_request"
	typeContactForm       = "contact_form"
	typeContactFormSubmit = "contact_form_submit"
	typeGlobalPresence    = "global_presence"
	typeNearbyOffices     = "nearby_offices"
)

// annotationPattern matches bracketed and angle-bracketed annotations that
// speech providers embed in transcript text.
var annotationPattern = regexp.MustCompile(`\[.*?\]|<.*?>`)

// DecoderConfig tunes the ephemeral lifetimes the decoder arms on insert.
type DecoderConfig struct {
	LocationRequestTTL time.Duration
	SubmitIndicatorTTL time.Duration
}

// DefaultDecoderConfig returns the production lifetimes: 30 s for a pending
// location prompt (covers a permission flow that never resolves) and 2 s for
// the submission-in-progress indicator.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		LocationRequestTTL: 30 * time.Second,
		SubmitIndicatorTTL: 2 * time.Second,
	}
}

// Decoder parses raw transport events into conversation items and applies
// them to the store. Malformed or unrecognized payloads are dropped; the
// transport is best-effort and a bad payload must never take the session
// down.
type Decoder struct {
	store     *ConversationStore
	streams   *StreamLifecycle
	ephemeral *EphemeralScheduler
	identity  *IdentityRecord
	cfg       DecoderConfig
	logger    *zap.Logger

	// onStreamComplete is invoked on an end-of-stream sentinel. Set by the
	// context syncer at wiring time.
	onStreamComplete func()

	localIdentity string
	now           func() int64
}

// NewDecoder creates a decoder writing into store. localIdentity is the
// local participant's identity; segments from any other identity are
// attributed to the agent.
func NewDecoder(
	store *ConversationStore,
	streams *StreamLifecycle,
	ephemeral *EphemeralScheduler,
	identity *IdentityRecord,
	localIdentity string,
	cfg DecoderConfig,
	logger *zap.Logger,
) *Decoder {
	return &Decoder{
		store:         store,
		streams:       streams,
		ephemeral:     ephemeral,
		identity:      identity,
		cfg:           cfg,
		logger:        logger,
		localIdentity: localIdentity,
		now:           func() int64 { return time.Now().UnixMilli() },
	}
}

// SetStreamCompleteFunc registers the callback fired when an end-of-stream
// sentinel arrives.
func (d *Decoder) SetStreamCompleteFunc(fn func()) {
	d.onStreamComplete = fn
}

// HandleTranscription folds a batch of transcription segments into the
// store. Re-arrival of a segment id replaces the stored item, which is how
// an interim fragment is upgraded to final.
func (d *Decoder) HandleTranscription(segments []repositories.TranscriptionSegment, participantIdentity string) {
	if participantIdentity == "" {
		return
	}
	sender := entities.SenderUser
	if participantIdentity != d.localIdentity {
		sender = entities.SenderAgent
	}

	for _, segment := range segments {
		text := strings.TrimSpace(annotationPattern.ReplaceAllString(segment.Text, ""))
		if text == "" && segment.Final {
			continue
		}

		item := entities.Item{
			ID:        segment.ID,
			Sender:    sender,
			Kind:      entities.KindText,
			Timestamp: segment.FirstReceivedAt,
			IsInterim: !segment.Final,
			Text:      text,
		}
		d.store.Upsert(item)
	}
}

// dataEnvelope is the loose shape of a data-channel message. The producer's
// schema has drifted across versions, so fields are probed both flat and
// nested under Data.
type dataEnvelope struct {
	Type     string          `json:"type"`
	StreamID string          `json:"stream_id"`
	Data     *dataEnvelope   `json:"data,omitempty"`
	Icon     json.RawMessage `json:"icon,omitempty"`
	Media    *mediaEnvelope  `json:"media,omitempty"`
	URLs     []string        `json:"urls,omitempty"`

	// Flashcard fields.
	Title          string              `json:"title"`
	Value          string              `json:"value"`
	AccentColor    string              `json:"accentColor"`
	Theme          string              `json:"theme"`
	Size           string              `json:"size"`
	Layout         string              `json:"layout"`
	Image          *entities.ImageSpec `json:"image"`
	CardIndex      int                 `json:"card_index"`
	VisualIntent   string              `json:"visual_intent"`
	AnimationStyle string              `json:"animation_style"`

	// Agent chat fields.
	Text    string `json:"text"`
	Message string `json:"message"`

	// Contact / identity fields.
	UserName       string `json:"user_name"`
	UserEmail      string `json:"user_email"`
	UserPhone      string `json:"user_phone"`
	UserID         string `json:"user_id"`
	ContactDetails string `json:"contact_details"`

	// Location / route fields.
	Reason      string `json:"reason"`
	Polyline    string `json:"polyline"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	TravelMode  string `json:"travelMode"`
	Distance    string `json:"distance"`
	Duration    string `json:"duration"`

	// Presence / offices fields.
	Regions      map[string]string `json:"regions"`
	Headquarters map[string]string `json:"headquarters"`
	Offices      []entities.Office `json:"offices"`
}

type mediaEnvelope struct {
	URLs        []string `json:"urls"`
	Query       string   `json:"query"`
	Source      string   `json:"source"`
	AspectRatio string   `json:"aspectRatio"`
	MediaType   string   `json:"mediaType"`
}

// HandleData parses one raw data-channel payload and applies it. Dispatch is
// by topic first, payload type second; invalid JSON and unknown shapes are
// dropped silently.
func (d *Decoder) HandleData(payload []byte, participantIdentity string, topic string) {
	var env dataEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		d.logger.Debug("dropping non-JSON data payload",
			zap.String("topic", topic), zap.Error(err))
		return
	}

	switch topic {
	case TopicFlashcard:
		d.handleFlashcard(&env, payload)
	case TopicText:
		d.handleAgentChat(&env, payload)
	case TopicUserDetails:
		d.handleUserDetails(&env)
	case TopicLocationRequest:
		d.handleLocationRequest(&env)
	case TopicContactForm:
		d.handleContactForm(&env)
	case TopicGlobalPresence:
		d.handleGlobalPresence(&env)
	case TopicNearbyOffices:
		d.handleNearbyOffices(&env)
	default:
		d.dispatchByType(&env, payload, topic)
	}
}

func (d *Decoder) dispatchByType(env *dataEnvelope, payload []byte, topic string) {
	switch env.Type {
	case typeFlashcard, typeEndOfStream:
		d.handleFlashcard(env, payload)
	case typeAgentChat:
		d.handleAgentChat(env, payload)
	case typeMapPolyline:
		d.handleRoute(env)
	case typeLocationRequest:
		d.handleLocationRequest(env)
	case typeContactForm, typeContactFormSubmit:
		d.handleContactForm(env)
	case typeGlobalPresence:
		d.handleGlobalPresence(env)
	case typeNearbyOffices:
		d.handleNearbyOffices(env)
	default:
		d.logger.Debug("dropping unrecognized data payload",
			zap.String("topic", topic), zap.String("type", env.Type))
	}
}

func (d *Decoder) handleFlashcard(env *dataEnvelope, raw []byte) {
	if env.Type == typeEndOfStream {
		d.logger.Info("flashcard stream completed", zap.String("streamID", env.StreamID))
		if d.onStreamComplete != nil {
			d.onStreamComplete()
		}
		return
	}

	card := entities.FlashcardData{
		Title:          env.Title,
		Value:          env.Value,
		AccentColor:    env.AccentColor,
		Theme:          env.Theme,
		Size:           env.Size,
		Layout:         env.Layout,
		Image:          env.Image,
		StreamID:       env.StreamID,
		CardIndex:      env.CardIndex,
		VisualIntent:   env.VisualIntent,
		AnimationStyle: env.AnimationStyle,
	}
	if card.Title == "" {
		card.Title = "Information"
	}
	if card.Value == "" {
		card.Value = string(raw)
	}
	card.Icon, card.SmartIcon = decodeIcon(env.Icon)
	if env.Media != nil {
		media := entities.DynamicMedia{
			URLs:        env.Media.URLs,
			Query:       env.Media.Query,
			Source:      env.Media.Source,
			AspectRatio: env.Media.AspectRatio,
			MediaType:   env.Media.MediaType,
		}
		// Some producer versions put urls at the top level instead of
		// inside media.
		if len(media.URLs) == 0 {
			media.URLs = env.URLs
		}
		card.Media = &media
	}

	d.streams.Insert(entities.Item{
		ID:        "card-" + uuid.NewString(),
		Sender:    entities.SenderAgent,
		Kind:      entities.KindFlashcard,
		Timestamp: d.now(),
		Card:      &card,
	})
}

// decodeIcon tolerates both a bare slug string and a structured smart-icon
// object in the icon field.
func decodeIcon(raw json.RawMessage) (string, *entities.SmartIcon) {
	if len(raw) == 0 {
		return "", nil
	}
	var slug string
	if err := json.Unmarshal(raw, &slug); err == nil {
		if slug == "" {
			return "", nil
		}
		return slug, &entities.SmartIcon{Type: "static", Ref: slug}
	}
	var icon entities.SmartIcon
	if err := json.Unmarshal(raw, &icon); err == nil && icon.Ref != "" {
		return icon.Ref, &icon
	}
	return "", nil
}

func (d *Decoder) handleAgentChat(env *dataEnvelope, raw []byte) {
	text := env.Text
	if text == "" {
		text = env.Message
	}
	if text == "" {
		text = string(raw)
	}
	d.store.Upsert(entities.Item{
		ID:        "agent-" + uuid.NewString(),
		Sender:    entities.SenderAgent,
		Kind:      entities.KindText,
		Timestamp: d.now(),
		Text:      text,
	})
}

func (d *Decoder) handleUserDetails(env *dataEnvelope) {
	incoming := entities.UserIdentity{
		Name:  env.UserName,
		Email: env.UserEmail,
		Phone: env.UserPhone,
		ID:    env.UserID,
	}
	if err := d.identity.Merge(incoming); err != nil {
		d.logger.Warn("failed to persist user details", zap.Error(err))
	}
}

// routeFields resolves route data from either the flat or the nested payload
// shape.
func routeFields(env *dataEnvelope) entities.RouteData {
	pick := func(get func(*dataEnvelope) string) string {
		if env.Data != nil {
			if v := get(env.Data); v != "" {
				return v
			}
		}
		return get(env)
	}
	return entities.RouteData{
		Polyline:    pick(func(e *dataEnvelope) string { return e.Polyline }),
		Origin:      pick(func(e *dataEnvelope) string { return e.Origin }),
		Destination: pick(func(e *dataEnvelope) string { return e.Destination }),
		TravelMode:  pick(func(e *dataEnvelope) string { return e.TravelMode }),
		Distance:    pick(func(e *dataEnvelope) string { return e.Distance }),
		Duration:    pick(func(e *dataEnvelope) string { return e.Duration }),
	}
}

func (d *Decoder) handleRoute(env *dataEnvelope) {
	route := routeFields(env)
	if route.Polyline == "" {
		d.logger.Debug("dropping route payload without polyline")
		return
	}
	d.store.Upsert(entities.Item{
		ID:        "route-" + uuid.NewString(),
		Sender:    entities.SenderAgent,
		Kind:      entities.KindMapRoute,
		Timestamp: d.now(),
		Route:     &route,
	})
}

// envelopeCarriesRoute reports whether a location_request payload actually
// wraps route data, which some producer versions do.
func envelopeCarriesRoute(env *dataEnvelope) bool {
	if env.Polyline != "" {
		return true
	}
	if env.Data != nil && (env.Data.Polyline != "" || env.Data.Type == typeMapPolyline) {
		return true
	}
	return false
}

func (d *Decoder) handleLocationRequest(env *dataEnvelope) {
	if envelopeCarriesRoute(env) {
		d.handleRoute(env)
		return
	}

	id := "location-req-" + uuid.NewString()
	d.store.Upsert(entities.Item{
		ID:              id,
		Sender:          entities.SenderAgent,
		Kind:            entities.KindLocationRequest,
		Timestamp:       d.now(),
		LocationRequest: &entities.LocationRequestData{Reason: env.Reason},
	})
	// Safety net for a geolocation permission flow that never resolves.
	d.ephemeral.Schedule(id, d.cfg.LocationRequestTTL)
}

func (d *Decoder) handleContactForm(env *dataEnvelope) {
	isSubmit := env.Type == typeContactFormSubmit
	kind := entities.KindContactForm
	if isSubmit {
		kind = entities.KindContactFormSubmit
	}

	pick := func(get func(*dataEnvelope) string) string {
		if env.Data != nil {
			if v := get(env.Data); v != "" {
				return v
			}
		}
		return get(env)
	}
	form := entities.ContactFormData{
		Name:    pick(func(e *dataEnvelope) string { return e.UserName }),
		Email:   pick(func(e *dataEnvelope) string { return e.UserEmail }),
		Phone:   pick(func(e *dataEnvelope) string { return e.UserPhone }),
		Details: pick(func(e *dataEnvelope) string { return e.ContactDetails }),
	}

	if isSubmit {
		// Clear live previews so the screen is clean once the submit
		// indicator dismisses itself.
		for _, removed := range d.store.RemoveKind(entities.KindContactForm) {
			d.ephemeral.Cancel(removed)
		}
	}

	id := string(kind) + "-" + uuid.NewString()
	d.store.Upsert(entities.Item{
		ID:          id,
		Sender:      entities.SenderAgent,
		Kind:        kind,
		Timestamp:   d.now(),
		ContactForm: &form,
	})
	if isSubmit {
		d.ephemeral.Schedule(id, d.cfg.SubmitIndicatorTTL)
	}
}

func (d *Decoder) handleGlobalPresence(env *dataEnvelope) {
	src := env
	if env.Data != nil && len(env.Data.Regions) > 0 {
		src = env.Data
	}
	if len(src.Regions) == 0 && len(src.Headquarters) == 0 {
		d.logger.Debug("dropping empty global presence payload")
		return
	}
	d.store.Upsert(entities.Item{
		ID:        "presence-" + uuid.NewString(),
		Sender:    entities.SenderAgent,
		Kind:      entities.KindGlobalPresence,
		Timestamp: d.now(),
		GlobalPresence: &entities.GlobalPresenceData{
			Regions:      src.Regions,
			Headquarters: src.Headquarters,
		},
	})
}

func (d *Decoder) handleNearbyOffices(env *dataEnvelope) {
	src := env
	if env.Data != nil && len(env.Data.Offices) > 0 {
		src = env.Data
	}
	if len(src.Offices) == 0 {
		d.logger.Debug("dropping empty nearby offices payload")
		return
	}
	d.store.Upsert(entities.Item{
		ID:            "offices-" + uuid.NewString(),
		Sender:        entities.SenderAgent,
		Kind:          entities.KindNearbyOffices,
		Timestamp:     d.now(),
		NearbyOffices: &entities.NearbyOfficesData{Offices: src.Offices},
	})
}
