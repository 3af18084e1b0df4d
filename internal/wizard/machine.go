package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/state"
	"github.com/m3rciful/kinobot/core/telegram/format"
	"github.com/m3rciful/kinobot/internal/apperr"
	"github.com/m3rciful/kinobot/internal/broadcast"
	"github.com/m3rciful/kinobot/internal/catalog"
	"github.com/m3rciful/kinobot/internal/chat"
)

// Catalog is the part of the catalog store the wizard commits to.
type Catalog interface {
	Create(ctx context.Context, e catalog.NewEntry) (int64, error)
	UpdateTitle(ctx context.Context, id int64, title string) error
}

// FileFetcher downloads an uploaded file by its transport file id.
type FileFetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

// Uploader re-hosts an image and returns its public URL. Failures are
// apperr upload errors carrying the host's message.
type Uploader interface {
	Upload(ctx context.Context, name string, image []byte) (string, error)
}

// Broadcaster fans a message out to all users.
type Broadcaster interface {
	Broadcast(ctx context.Context, r chat.Reply) (broadcast.Report, error)
}

// Config wires a Machine. Sessions and Catalog are required.
type Config struct {
	Sessions    state.Store[Session]
	Catalog     Catalog
	Files       FileFetcher
	Uploader    Uploader
	Broadcaster Broadcaster
	Genres      []string
	Now         func() time.Time
}

// Machine drives every user's wizard session. Callers must not handle two
// events of the same user concurrently.
type Machine struct {
	cfg Config
}

// NewMachine returns a Machine over cfg.
func NewMachine(cfg Config) *Machine {
	if cfg.Sessions == nil {
		cfg.Sessions = state.NewMemoryStore[Session]()
	}
	if len(cfg.Genres) == 0 {
		cfg.Genres = DefaultGenres
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Machine{cfg: cfg}
}

// A handler consumes one accepted event, editing s in place. done reports
// that the wizard finished and the session must go; a finished handler has
// already replied.
type handler func(m *Machine, ctx context.Context, userID int64, s *Session, ev chat.Event, out chat.Responder) (done bool, err error)

const (
	tagText     = "text"
	tagVideo    = "video"
	tagPhoto    = "photo"
	choicePrefx = "choice:"
)

var transitions = map[State]map[string]handler{
	ChoosingType:          {choicePrefx + KeyType: (*Machine).onType},
	EnteringTitle:         {tagText: (*Machine).onTitle},
	EnteringDescription:   {tagText: (*Machine).onDescription},
	ChoosingGenre:         {choicePrefx + KeyGenre: (*Machine).onGenre},
	ChoosingYear:          {choicePrefx + KeyYear: (*Machine).onYear, tagText: (*Machine).onYear},
	ChoosingDuration:      {choicePrefx + KeyDuration: (*Machine).onDuration, tagText: (*Machine).onDuration},
	ChoosingRating:        {choicePrefx + KeyRating: (*Machine).onRating},
	UploadingVideo:        {tagVideo: (*Machine).onVideo},
	UploadingPoster:       {tagPhoto: (*Machine).onPosterPhoto, tagText: (*Machine).onPosterURL},
	Confirming:            {choicePrefx + KeyConfirm: (*Machine).onConfirm},
	AwaitingNewTitle:      {tagText: (*Machine).onNewTitle},
	AwaitingBroadcastText: {tagText: (*Machine).onBroadcastText},
}

func eventTag(ev chat.Event) string {
	if ev.Kind == chat.KindChoice {
		return choicePrefx + ev.Choice.Key
	}
	return ev.Kind.String()
}

// Active returns the user's session, if any.
func (m *Machine) Active(userID int64) (Session, bool) {
	return m.cfg.Sessions.Get(userID)
}

// Cancel drops the user's session and reports whether one existed.
func (m *Machine) Cancel(ctx context.Context, userID int64) bool {
	s, ok := m.cfg.Sessions.Get(userID)
	if !ok {
		return false
	}
	m.cfg.Sessions.Clear(userID)
	m.logTransition(ctx, userID, s.Flow, s.State, Cancelled)
	return true
}

// StartAdd begins the add wizard, replacing any session the user had.
func (m *Machine) StartAdd(ctx context.Context, userID int64, out chat.Responder) error {
	return m.start(ctx, userID, Session{Flow: FlowAdd, State: ChoosingType}, out)
}

// StartEdit begins a title edit of target.
func (m *Machine) StartEdit(ctx context.Context, userID int64, target catalog.Summary, out chat.Responder) error {
	return m.start(ctx, userID, Session{
		Flow:     FlowEditTitle,
		State:    AwaitingNewTitle,
		TargetID: target.ID,
		Target:   target.Title,
	}, out)
}

// StartBroadcast asks the user for the broadcast text.
func (m *Machine) StartBroadcast(ctx context.Context, userID int64, out chat.Responder) error {
	return m.start(ctx, userID, Session{Flow: FlowBroadcast, State: AwaitingBroadcastText}, out)
}

func (m *Machine) start(ctx context.Context, userID int64, s Session, out chat.Responder) error {
	s.StartedAt = m.cfg.Now()
	_, replaced := m.cfg.Sessions.Get(userID)
	m.cfg.Sessions.Put(userID, s)

	logger.LogEvent(ctx, logger.SVCWizard, slog.LevelInfo, "wizard.started",
		slog.Int64("user_id", userID),
		slog.String("flow", string(s.Flow)),
		slog.String("state", string(s.State)),
		slog.Bool("replaced", replaced),
	)
	if err := out.Reply(ctx, m.prompt(s)); err != nil {
		return fmt.Errorf("wizard.start: %w", err)
	}
	return nil
}

// Handle feeds ev to the sender's session. Input the current state does not
// accept, or values that fail validation, re-send the state's prompt and
// leave the session untouched. Errors returned are unexpected failures; the
// session is left as it was.
func (m *Machine) Handle(ctx context.Context, ev chat.Event, out chat.Responder) error {
	s, ok := m.cfg.Sessions.Get(ev.UserID)
	if !ok {
		if ev.Kind == chat.KindChoice && OwnsChoice(ev.Choice.Key) {
			return out.Reply(ctx, chat.Reply{Text: "⌛ This menu has expired."})
		}
		return apperr.New(apperr.KindMalformedInput, "wizard.handle", "no active wizard")
	}

	h, ok := transitions[s.State][eventTag(ev)]
	if !ok {
		logger.LogEvent(ctx, logger.SVCWizard, slog.LevelDebug, "wizard.rejected",
			slog.Int64("user_id", ev.UserID),
			slog.String("state", string(s.State)),
			slog.String("kind", eventTag(ev)),
		)
		return m.reprompt(ctx, s, hintFor(s.State), out)
	}

	next := s
	done, err := h(m, ctx, ev.UserID, &next, ev, out)
	if done {
		m.cfg.Sessions.Clear(ev.UserID)
		m.logTransition(ctx, ev.UserID, s.Flow, s.State, next.State)
		return err
	}
	if err != nil {
		return m.fail(ctx, s, err, out)
	}

	if err := out.Reply(ctx, m.prompt(next)); err != nil {
		if next.State == Confirming {
			logger.LogEvent(ctx, logger.SVCWizard, slog.LevelWarn, "wizard.preview_failed",
				slog.Int64("user_id", ev.UserID),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			return out.Reply(ctx, chat.Reply{Text: "❌ Could not display this poster. Please send another image."})
		}
		return fmt.Errorf("wizard: prompt %s: %w", next.State, err)
	}
	m.cfg.Sessions.Put(ev.UserID, next)
	m.logTransition(ctx, ev.UserID, s.Flow, s.State, next.State)
	return nil
}

func (m *Machine) fail(ctx context.Context, s Session, err error, out chat.Responder) error {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindMalformedInput:
		hint := hintFor(s.State)
		if msg := apperr.Message(err); msg != "" {
			hint = "❌ " + upperFirst(format.Escape(msg)) + "."
		}
		return m.reprompt(ctx, s, hint, out)
	case apperr.KindUpload:
		return out.Reply(ctx, chat.Reply{Text: "❌ Could not upload the image: " +
			format.Escape(apperr.Message(err)) + "\nPlease try again."})
	}
	return err
}

func (m *Machine) reprompt(ctx context.Context, s Session, hint string, out chat.Responder) error {
	p := m.prompt(s)
	if s.State == Confirming {
		return out.Reply(ctx, chat.Reply{Text: hint, Buttons: p.Buttons})
	}
	p.Text = hint + "\n\n" + p.Text
	return out.Reply(ctx, p)
}

func hintFor(st State) string {
	switch st {
	case UploadingVideo:
		return "❌ Please send a video file."
	case UploadingPoster:
		return "❌ Please send an image or an image link."
	case Confirming:
		return "Please confirm or cancel using the buttons."
	case ChoosingYear, ChoosingDuration:
		return "❌ Please choose one of the buttons or type a number."
	case ChoosingType, ChoosingGenre, ChoosingRating:
		return "❌ Please choose one of the buttons."
	}
	return "❌ Please send a text message."
}

func (m *Machine) prompt(s Session) chat.Reply {
	switch s.State {
	case ChoosingType:
		return chat.Reply{Text: "🎬 Choose the type:", Buttons: typeMenu()}
	case EnteringTitle:
		return chat.Reply{Text: "📝 Send the title:"}
	case EnteringDescription:
		return chat.Reply{Text: "📖 Send the description:"}
	case ChoosingGenre:
		return chat.Reply{Text: "🎭 Choose the genre:", Buttons: genreMenu(m.cfg.Genres)}
	case ChoosingYear:
		return chat.Reply{Text: "📅 Choose the year or type it:", Buttons: yearMenu(m.cfg.Now().Year())}
	case ChoosingDuration:
		return chat.Reply{Text: "⏱ Choose the duration or type it in minutes:", Buttons: durationMenuKeyboard()}
	case ChoosingRating:
		return chat.Reply{Text: "⭐ Choose the rating:", Buttons: ratingMenu()}
	case UploadingVideo:
		return chat.Reply{Text: "🎞 Send the video file:"}
	case UploadingPoster:
		return chat.Reply{Text: "🖼 Send the poster as an image or an image link:"}
	case Confirming:
		return chat.Reply{Photo: s.Draft.PosterRef, Text: previewCaption(s.Draft), Buttons: confirmMenu()}
	case AwaitingNewTitle:
		return chat.Reply{Text: fmt.Sprintf("✏️ Send the new title for #%d %s:", s.TargetID, format.Bold(s.Target))}
	case AwaitingBroadcastText:
		return chat.Reply{Text: "📢 Send the message to broadcast to all users:"}
	}
	return chat.Reply{Text: "Unknown step."}
}

// previewCaptionLimit is Telegram's media caption limit less room for the
// emoji, which count twice.
const previewCaptionLimit = 1024 - 32

func previewCaption(d Draft) string {
	var head, tail strings.Builder
	head.WriteString("🎬 <b>Entry details</b>\n\n")
	fmt.Fprintf(&head, "📂 Type: %s\n", format.Escape(d.Kind.Label()))
	fmt.Fprintf(&head, "📝 Title: %s\n", format.Escape(format.Truncate(d.Title, 200)))
	head.WriteString("📖 Description: ")

	fmt.Fprintf(&tail, "\n🎭 Genre: %s\n", format.Escape(format.Truncate(d.Genre, 64)))
	fmt.Fprintf(&tail, "📅 Year: %s\n", format.OptionalInt(d.Year))
	fmt.Fprintf(&tail, "⏱ Duration: %s min\n", format.OptionalInt(d.Duration))
	fmt.Fprintf(&tail, "⭐ Rating: %s/10\n\n", FormatRating(d.Rating))
	tail.WriteString("Save this entry?")

	room := previewCaptionLimit - utf8.RuneCountInString(head.String()) - utf8.RuneCountInString(tail.String())
	desc := format.Truncate(d.Description, min(room, 600))
	return head.String() + format.Escape(desc) + tail.String()
}

// FormatRating renders a rating, or a dash when absent.
func FormatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}

func (m *Machine) logTransition(ctx context.Context, userID int64, flow Flow, from, to State) {
	logger.LogEvent(ctx, logger.SVCWizard, slog.LevelDebug, "wizard.transition",
		slog.Int64("user_id", userID),
		slog.String("flow", string(flow)),
		slog.String("from_state", string(from)),
		slog.String("to_state", string(to)),
	)
}

func textInput(op, name, text string, maxLen int) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", apperr.Validation(op, name+" must not be empty")
	case strings.HasPrefix(text, "/"):
		return "", apperr.New(apperr.KindMalformedInput, op, "commands are not accepted here")
	case utf8.RuneCountInString(text) > maxLen:
		return "", apperr.Validation(op, fmt.Sprintf("%s is too long (max %d characters)", name, maxLen))
	}
	return text, nil
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return strings.ToUpper(string(r)) + s[n:]
}

func (m *Machine) onType(_ context.Context, _ int64, s *Session, ev chat.Event, _ chat.Responder) (bool, error) {
	k, err := parseKind(ev.Choice.Value)
	if err != nil {
		return false, err
	}
	s.Draft.Kind = k
	s.State = EnteringTitle
	return false, nil
}

func (m *Machine) onTitle(_ context.Context, _ int64, s *Session, ev chat.Event, _ chat.Responder) (bool, error) {
	t, err := textInput("wizard.title", "title", ev.Text, 256)
	if err != nil {
		return false, err
	}
	s.Draft.Title = t
	s.State = EnteringDescription
	return false, nil
}

func (m *Machine) onDescription(_ context.Context, _ int64, s *Session, ev chat.Event, _ chat.Responder) (bool, error) {
	d, err := textInput("wizard.description", "description", ev.Text, 4096)
	if err != nil {
		return false, err
	}
	s.Draft.Description = d
	s.State = ChoosingGenre
	return false, nil
}

func (m *Machine) onGenre(_ context.Context, _ int64, s *Session, ev chat.Event, _ chat.Responder) (bool, error) {
	g, err := parseGenre(ev.Choice.Value, m.cfg.Genres)
	if err != nil {
		return false, err
	}
	s.Draft.Genre = g
	s.State = ChoosingYear
	return false, nil
}

func (m *Machine) onYear(_ context.Context, _ int64, s *Session, ev chat.Event, _ chat.Responder) (bool, error) {
	y, err := parseBounded("wizard.year", "year", menuValue(ev), MinYear, MaxYear)
	if err != nil {
		return false, err
	}
	s.Draft.Year = &y
	s.State = ChoosingDuration
	return false, nil
}

func (m *Machine) onDuration(_ context.Context, _ int64, s *Session, ev chat.Event, _ chat.Responder) (bool, error) {
	d, err := parseBounded("wizard.duration", "duration", menuValue(ev), MinDuration, MaxDuration)
	if err != nil {
		return false, err
	}
	s.Draft.Duration = &d
	s.State = ChoosingRating
	return false, nil
}

func (m *Machine) onRating(_ context.Context, _ int64, s *Session, ev chat.Event, _ chat.Responder) (bool, error) {
	n, err := parseBounded("wizard.rating", "rating", ev.Choice.Value, catalog.MinRating, catalog.MaxRating)
	if err != nil {
		return false, err
	}
	r := float64(n)
	s.Draft.Rating = &r
	s.State = UploadingVideo
	return false, nil
}

func (m *Machine) onVideo(_ context.Context, _ int64, s *Session, ev chat.Event, _ chat.Responder) (bool, error) {
	if ev.File.ID == "" {
		return false, apperr.New(apperr.KindMalformedInput, "wizard.video", "")
	}
	s.Draft.MediaRef = ev.File.ID
	s.State = UploadingPoster
	return false, nil
}

func (m *Machine) onPosterPhoto(ctx context.Context, _ int64, s *Session, ev chat.Event, _ chat.Responder) (bool, error) {
	const op = "wizard.poster"
	if m.cfg.Uploader == nil || m.cfg.Files == nil {
		return false, apperr.New(apperr.KindUpload, op, "image hosting is not configured, send an image link instead")
	}
	data, err := m.cfg.Files.Fetch(ctx, ev.File.ID)
	if err != nil {
		return false, apperr.Wrap(apperr.KindUpload, op, "could not download the image", err)
	}
	link, err := m.cfg.Uploader.Upload(ctx, "poster.jpg", data)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUpload {
			err = apperr.Wrap(apperr.KindUpload, op, "image host error", err)
		}
		return false, err
	}
	s.Draft.PosterRef = link
	s.State = Confirming
	return false, nil
}

func (m *Machine) onPosterURL(_ context.Context, _ int64, s *Session, ev chat.Event, _ chat.Responder) (bool, error) {
	const op = "wizard.poster"
	text := strings.TrimSpace(ev.Text)
	if !strings.HasPrefix(strings.ToLower(text), "http") {
		return false, apperr.New(apperr.KindMalformedInput, op, "")
	}
	u, err := url.ParseRequestURI(text)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false, apperr.Validation(op, "that link does not look valid")
	}
	s.Draft.PosterRef = text
	s.State = Confirming
	return false, nil
}

func (m *Machine) onConfirm(ctx context.Context, userID int64, s *Session, ev chat.Event, out chat.Responder) (bool, error) {
	switch ev.Choice.Value {
	case ConfirmNo:
		s.State = Cancelled
		return true, out.Reply(ctx, chat.Reply{Text: "❌ Adding was cancelled."})
	case ConfirmYes:
	default:
		return false, apperr.Validation("wizard.confirm", "please confirm or cancel")
	}

	id, err := m.cfg.Catalog.Create(ctx, s.Draft.Entry(userID))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			s.State = Cancelled
			return true, out.Reply(ctx, chat.Reply{Text: "❌ Could not save: " + format.Escape(apperr.Message(err))})
		}
		return false, err
	}
	s.State = Committed
	return true, out.Reply(ctx, chat.Reply{Text: fmt.Sprintf("✅ Saved!\n\n🆔 Entry ID: <code>%d</code>", id)})
}

func (m *Machine) onNewTitle(ctx context.Context, _ int64, s *Session, ev chat.Event, out chat.Responder) (bool, error) {
	t, err := textInput("wizard.new_title", "title", ev.Text, 256)
	if err != nil {
		return false, err
	}
	if err := m.cfg.Catalog.UpdateTitle(ctx, s.TargetID, t); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			s.State = Cancelled
			return true, out.Reply(ctx, chat.Reply{Text: fmt.Sprintf("❌ Entry #%d no longer exists.", s.TargetID)})
		}
		return false, err
	}
	s.State = Committed
	return true, out.Reply(ctx, chat.Reply{Text: "✅ Title updated: " + format.Bold(t)})
}

func (m *Machine) onBroadcastText(ctx context.Context, _ int64, s *Session, ev chat.Event, out chat.Responder) (bool, error) {
	t, err := textInput("wizard.broadcast", "message", ev.Text, 4096)
	if err != nil {
		return false, err
	}
	if m.cfg.Broadcaster == nil {
		return false, fmt.Errorf("wizard.broadcast: no broadcaster configured")
	}
	s.State = Sent
	rep, err := m.cfg.Broadcaster.Broadcast(ctx, chat.Reply{Text: format.Escape(t)})
	if err != nil {
		return true, out.Reply(ctx, chat.Reply{Text: fmt.Sprintf(
			"⚠️ Broadcast stopped early: sent to %d of %d users.", rep.Sent, rep.Total)})
	}
	return true, out.Reply(ctx, chat.Reply{Text: fmt.Sprintf("✅ Message sent to %d users.", rep.Sent)})
}
