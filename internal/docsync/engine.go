package docsync

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/storage"
	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

// Outcome classifies what a document sync did.
type Outcome string

// Sync outcomes
const (
	Created   Outcome = "created"
	Updated   Outcome = "updated"
	Unchanged Outcome = "unchanged"
)

// Result describes one completed document sync.
type Result struct {
	Outcome       Outcome
	ID            string
	ItemType      types.ItemType
	Path          string
	AppliedFields []string
}

// DocumentEvent is delivered to a Notifier after a sync mutates the store.
type DocumentEvent struct {
	ID    string
	Type  types.ItemType
	Path  string
	Event Outcome
}

// Notifier receives fire-and-forget notifications of document-driven
// changes. Implementations must not block.
type Notifier interface {
	NotifyDocumentChanged(DocumentEvent)
}

// trackedFields are the header keys the engine reconciles, in apply order.
// The epic key maps to the parent reference on story updates.
var trackedFields = []string{"status", "title", "owner", "points", "epic"}

// Engine reconciles documents with the store using a persisted three-way
// merge baseline.
type Engine struct {
	store    storage.Store
	policy   Policy
	actor    string
	notifier Notifier
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the conflict resolution policy. Default is manual.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithActor sets the actor recorded on audit entries written during sync.
func WithActor(actor string) Option {
	return func(e *Engine) { e.actor = actor }
}

// WithNotifier registers a notifier for post-sync events.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a sync engine over the given store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		policy: PolicyManual,
		actor:  "docsync",
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncFromDocument reconciles one document's header with the store.
// Returns Unchanged without touching anything when the document fingerprint
// matches the stored one; creates the item when the header names an unknown
// id; otherwise runs three-way conflict detection against the recorded
// baseline and applies the resolution policy.
func (e *Engine) SyncFromDocument(ctx context.Context, doc []byte, sourcePath string) (*Result, error) {
	fields, _, err := Extract(doc)
	if err != nil {
		return nil, err
	}
	itemType, err := validateHeader(fields)
	if err != nil {
		return nil, err
	}
	id := fields["id"]
	fp := Fingerprint(doc)

	item, err := e.store.GetItem(ctx, itemType, id)
	if errors.Is(err, storage.ErrNotFound) {
		return e.createFromDocument(ctx, itemType, fields, fp, sourcePath)
	}
	if err != nil {
		return nil, err
	}

	if item.ContentFingerprint == fp {
		e.logger.Debug("document unchanged", "path", sourcePath, "id", id)
		return &Result{Outcome: Unchanged, ID: id, ItemType: itemType, Path: sourcePath}, nil
	}

	baseline, err := e.store.GetSyncState(ctx, sourcePath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	changes, applied, conflicts := e.reconcile(item, fields, baseline)
	if len(conflicts) > 0 && e.policy == PolicyManual {
		return nil, &ConflictError{ID: id, Path: sourcePath, Conflicts: conflicts}
	}

	changes["content_fingerprint"] = fp
	changes["source_path"] = sourcePath
	updated, err := e.store.UpdateItem(ctx, itemType, id, changes, e.actor)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", sourcePath, err)
	}
	if err := e.putBaseline(ctx, updated, fp, sourcePath); err != nil {
		return nil, err
	}

	e.logger.Info("document synced", "path", sourcePath, "id", id,
		"applied", len(applied), "conflicts", len(conflicts))
	result := &Result{Outcome: Updated, ID: id, ItemType: itemType,
		Path: sourcePath, AppliedFields: applied}
	e.notify(result)
	return result, nil
}

// reconcile computes the change set for an existing item. Conflicting fields
// are resolved by policy; manual conflicts are returned for the caller to
// reject before anything mutates.
func (e *Engine) reconcile(item *types.WorkItem, fields map[string]string, baseline *types.SyncState) (map[string]interface{}, []string, []FieldConflict) {
	changes := map[string]interface{}{}
	var applied []string
	var conflicts []FieldConflict

	for _, field := range trackedFields {
		docVal, inDoc := fields[field]
		if !inDoc {
			continue
		}
		if field == "epic" && item.ItemType != types.TypeStory {
			continue
		}
		dbVal := itemFieldValue(item, field)

		baseVal, hasBase := "", false
		if baseline != nil {
			baseVal, hasBase = baseline.Fields[field]
		}

		decision := decideField(dbVal, docVal, baseVal, hasBase)
		if decision == conflicted {
			conflicts = append(conflicts, FieldConflict{
				Field: field, Base: baseVal, Database: dbVal, Document: docVal,
			})
			switch e.policy {
			case PolicyDocumentWins:
				decision = applyDocument
			case PolicyDatabaseWins:
				decision = keepDatabase
			default:
				continue
			}
		}
		if decision == applyDocument {
			changes[changeKey(field)] = changeValue(field, docVal)
			applied = append(applied, field)
		}
	}
	return changes, applied, conflicts
}

func (e *Engine) createFromDocument(ctx context.Context, itemType types.ItemType, fields map[string]string, fp, sourcePath string) (*Result, error) {
	points := 0
	if raw := fields["points"]; raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid points %q: %w", raw, ErrMalformedHeader)
		}
		points = p
	}
	title := fields["title"]
	if title == "" {
		title = fields["id"]
	}
	item := &types.WorkItem{
		ID:                 fields["id"],
		ItemType:           itemType,
		Title:              title,
		Status:             types.Status(fields["status"]),
		Owner:              fields["owner"],
		ParentID:           fields["epic"],
		Points:             points,
		SourcePath:         sourcePath,
		ContentFingerprint: fp,
	}
	if err := e.store.CreateItem(ctx, item, e.actor); err != nil {
		return nil, fmt.Errorf("sync create %s: %w", sourcePath, err)
	}
	if err := e.putBaseline(ctx, item, fp, sourcePath); err != nil {
		return nil, err
	}

	e.logger.Info("document created item", "path", sourcePath, "id", item.ID, "type", itemType)
	result := &Result{Outcome: Created, ID: item.ID, ItemType: itemType, Path: sourcePath}
	e.notify(result)
	return result, nil
}

// putBaseline records the post-sync field snapshot as the next merge base.
func (e *Engine) putBaseline(ctx context.Context, item *types.WorkItem, fp, sourcePath string) error {
	snapshot := map[string]string{}
	for _, field := range trackedFields {
		if field == "epic" && item.ItemType != types.TypeStory {
			continue
		}
		snapshot[field] = itemFieldValue(item, field)
	}
	return e.store.PutSyncState(ctx, &types.SyncState{
		Path:        sourcePath,
		Fingerprint: fp,
		Fields:      snapshot,
	})
}

func (e *Engine) notify(result *Result) {
	if e.notifier == nil {
		return
	}
	e.notifier.NotifyDocumentChanged(DocumentEvent{
		ID:    result.ID,
		Type:  result.ItemType,
		Path:  result.Path,
		Event: result.Outcome,
	})
}

// SyncToDocument regenerates the header of an item's document from current
// store state, preserving the body byte-for-byte. When existing is nil a
// default body is generated. Output is stable across repeated calls.
func (e *Engine) SyncToDocument(ctx context.Context, itemType types.ItemType, id string, existing []byte) ([]byte, error) {
	item, err := e.store.GetItem(ctx, itemType, id)
	if err != nil {
		return nil, err
	}
	header, err := RenderHeader(item)
	if err != nil {
		return nil, err
	}

	var body []byte
	if existing != nil {
		_, body, err = Extract(existing)
		if err != nil {
			return nil, err
		}
	} else {
		body = []byte(fmt.Sprintf("\n# %s\n", item.Title))
	}
	return append(header, body...), nil
}

func itemFieldValue(item *types.WorkItem, field string) string {
	switch field {
	case "status":
		return string(item.Status)
	case "title":
		return item.Title
	case "owner":
		return item.Owner
	case "points":
		return strconv.Itoa(item.Points)
	case "epic":
		return item.ParentID
	default:
		return ""
	}
}

func changeKey(field string) string {
	if field == "epic" {
		return "parent"
	}
	return field
}

func changeValue(field, docVal string) interface{} {
	if field == "points" {
		if p, err := strconv.Atoi(docVal); err == nil {
			return p
		}
	}
	return docVal
}
