package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to the NodeLoader interface.
// Each document is one node: frontmatter holds id and options, the body is the message.
type Loader struct {
	Repo *loam.TypedRepository[NodeMetadata]

	// docs maps node IDs to document IDs, for nodes whose frontmatter id
	// differs from their file name. Refreshed by ListNodes.
	mu   sync.Mutex
	docs map[string]string
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at path and wraps it.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numeric frontmatter as json.Number.
	// The table is never written back, so the repository is read-only.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return New(loam.NewTypedRepository[NodeMetadata](repo)), nil
}

// GetNode retrieves a node from the Loam repository and encodes it as JSON.
func (l *Loader) GetNode(id string) ([]byte, error) {
	ctx := context.Background()

	// Loam resolves "start" to start.md (or .json/.yaml).
	docID, err := l.documentFor(id)
	if err != nil {
		return nil, err
	}
	doc, err := l.Repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	node := buildNode(doc.ID, doc.Data, doc.Content)

	bytes, err := json.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node data: %w", err)
	}
	return bytes, nil
}

func buildNode(docID string, meta NodeMetadata, content string) domain.Node {
	rawID := meta.ID
	if rawID == "" {
		rawID = docID
	}

	message := meta.Message
	if message == "" {
		message = strings.TrimSpace(content)
	}

	options := make([]domain.Option, 0, len(meta.Options))
	for _, opt := range meta.Options {
		options = append(options, domain.Option{
			Text:      opt.Text,
			NextState: trimExtension(opt.Target()),
		})
	}

	node := domain.Node{
		ID:      trimExtension(rawID),
		Message: message,
		Options: options,
	}
	if meta.Metadata != nil {
		node.Metadata = flattenMetadata(meta.Metadata)
	}
	return node
}

// ListNodes lists all nodes in the repository.
func (l *Loader) ListNodes() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	index := make(map[string]string)

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
		if docID := trimExtension(doc.ID); docID != id {
			index[id] = docID
		}
	}
	sort.Strings(ids)

	l.mu.Lock()
	l.docs = index
	l.mu.Unlock()
	return ids, nil
}

// documentFor returns the document holding node id. The index is built on
// first use; ids absent from it are looked up as file names.
func (l *Loader) documentFor(id string) (string, error) {
	l.mu.Lock()
	built := l.docs != nil
	l.mu.Unlock()
	if !built {
		if _, err := l.ListNodes(); err != nil {
			return "", err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if docID, ok := l.docs[id]; ok {
		return docID, nil
	}
	return id, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// flattenMetadata converts a nested map into a flat map[string]string
// using "-" as the key separator.
func flattenMetadata(src map[string]any) map[string]string {
	res := make(map[string]string)
	var visit func(prefix string, v any)

	visit = func(prefix string, v any) {
		switch val := v.(type) {
		case map[string]any:
			for k, sub := range val {
				fullKey := k
				if prefix != "" {
					fullKey = prefix + "-" + k
				}
				visit(fullKey, sub)
			}
		case map[any]any: // YAML often decodes to this
			for k, sub := range val {
				strKey := fmt.Sprintf("%v", k)
				fullKey := strKey
				if prefix != "" {
					fullKey = prefix + "-" + strKey
				}
				visit(fullKey, sub)
			}
		case []any:
			var parts []string
			for _, item := range val {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
			res[prefix] = strings.Join(parts, " ")
		default:
			if prefix != "" {
				res[prefix] = fmt.Sprintf("%v", val)
			}
		}
	}

	for k, v := range src {
		visit(k, v)
	}
	return res
}
