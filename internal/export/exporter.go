// Package export renders candidate pools and assembled contexts into the
// downstream formats: the lorebook JSON interchange file, a markdown report,
// and a zstd-compressed archive of either.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	lberrors "lorebook/internal/errors"
	"lorebook/internal/logging"
	"lorebook/internal/model"
)

// EntryRecord is one entry in the lorebook interchange format. The trigger
// booleans are mutually exclusive by construction: they are derived from the
// entry's single trigger mode.
type EntryRecord struct {
	UID            int      `json:"uid"`
	Key            []string `json:"key"`
	KeySecondary   []string `json:"keysecondary"`
	Comment        string   `json:"comment"`
	Content        string   `json:"content"`
	Constant       bool     `json:"constant"`
	Vectorized     bool     `json:"vectorized"`
	Selective      bool     `json:"selective"`
	SelectiveLogic int      `json:"selectiveLogic"`
	Order          int      `json:"order"`
	Probability    int      `json:"probability"`
	UseProbability bool     `json:"useProbability"`
	Depth          int      `json:"depth"`
	GroupWeight    int      `json:"groupWeight"`
}

// Settings is the lorebook-level settings block of the interchange format.
type Settings struct {
	OrderByTitle    bool `json:"orderByTitle"`
	UseDroste       bool `json:"useDroste"`
	UseRecursion    bool `json:"useRecursion"`
	TokenBudget     int  `json:"tokenBudget"`
	RecursionBudget int  `json:"recursionBudget"`
}

// Meta identifies the producing tool. GeneratedAt is the only time-varying
// field in an export; snapshot comparison strips it.
type Meta struct {
	Tool        string `json:"tool"`
	Version     string `json:"version"`
	Scope       string `json:"scope"`
	GeneratedAt string `json:"generatedAt"`
}

// Exporter writes lorebook exports.
type Exporter struct {
	tool    string
	version string
	logger  *logging.Logger
	now     func() time.Time
}

// New returns an exporter stamping exports with the given tool identity.
func New(tool, version string, logger *logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Exporter{tool: tool, version: version, logger: logger, now: time.Now}
}

// Record converts an entry to its interchange record.
func Record(e model.Entry) EntryRecord {
	keys := e.Keys
	if keys == nil {
		keys = []string{}
	}
	secondary := e.SecondaryKeys
	if secondary == nil {
		secondary = []string{}
	}
	return EntryRecord{
		UID:            e.UID,
		Key:            keys,
		KeySecondary:   secondary,
		Comment:        e.Title,
		Content:        e.Content,
		Constant:       e.Mode == model.TriggerConstant,
		Vectorized:     e.Mode == model.TriggerVectorized,
		Selective:      e.Mode == model.TriggerSelective,
		SelectiveLogic: int(e.Logic),
		Order:          e.Order,
		Probability:    e.Probability,
		UseProbability: e.Probability < 100,
		Depth:          e.ScanDepth,
		GroupWeight:    e.GroupWeight,
	}
}

// Lorebook encodes entries into the interchange JSON. The entries map is
// keyed by stringified uid and preserves the input order, which encoding/json
// cannot do for Go maps, so the object is written by hand.
func (x *Exporter) Lorebook(scope string, entries []model.Entry, settings Settings) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"entries":{`)

	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		rec, err := json.Marshal(Record(e))
		if err != nil {
			return nil, lberrors.New(lberrors.ExportFailed, fmt.Sprintf("encoding entry %d", e.UID), err)
		}
		fmt.Fprintf(&buf, `"%d":`, e.UID)
		buf.Write(rec)
	}

	meta, err := json.Marshal(Meta{
		Tool:        x.tool,
		Version:     x.version,
		Scope:       scope,
		GeneratedAt: x.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, lberrors.New(lberrors.ExportFailed, "encoding meta", err)
	}
	set, err := json.Marshal(settings)
	if err != nil {
		return nil, lberrors.New(lberrors.ExportFailed, "encoding settings", err)
	}

	buf.WriteString(`},"meta":`)
	buf.Write(meta)
	buf.WriteString(`,"settings":`)
	buf.Write(set)
	buf.WriteByte('}')

	x.logger.Debug("encoded lorebook export", map[string]interface{}{
		"scope":   scope,
		"entries": len(entries),
		"bytes":   buf.Len(),
	})
	return buf.Bytes(), nil
}

// WriteFile writes data to path.
func (x *Exporter) WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return lberrors.New(lberrors.ExportFailed, fmt.Sprintf("writing %s", path), err)
	}
	return nil
}

// WriteArchive writes data to path compressed with zstd.
func (x *Exporter) WriteArchive(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return lberrors.New(lberrors.ExportFailed, fmt.Sprintf("creating %s", path), err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return lberrors.New(lberrors.ExportFailed, "initializing zstd writer", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return lberrors.New(lberrors.ExportFailed, fmt.Sprintf("compressing %s", path), err)
	}
	if err := w.Close(); err != nil {
		return lberrors.New(lberrors.ExportFailed, fmt.Sprintf("flushing %s", path), err)
	}

	x.logger.Debug("wrote export archive", map[string]interface{}{
		"path": path,
		"raw":  len(data),
	})
	return nil
}

// ReadArchive reads a zstd-compressed export back.
func ReadArchive(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lberrors.New(lberrors.ExportFailed, fmt.Sprintf("reading %s", path), err)
	}
	r, err := zstd.NewReader(nil)
	if err != nil {
		return nil, lberrors.New(lberrors.ExportFailed, "initializing zstd reader", err)
	}
	defer r.Close()
	out, err := r.DecodeAll(data, nil)
	if err != nil {
		return nil, lberrors.New(lberrors.ExportFailed, fmt.Sprintf("decompressing %s", path), err)
	}
	return out, nil
}
