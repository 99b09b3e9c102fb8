package plate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Snapshot — сериализуемый слепок мира для выгрузки наружу.
// Слепок самодостаточен: импортёру не нужен доступ к ассетам.
type Snapshot struct {
	World      *World `json:"world"`
	FormatVer  int    `json:"format_ver"`
	ExportedBy string `json:"exported_by"`
}

const snapshotFormatVer = 1

// ExportGzip сериализует мир в JSON и сжимает gzip-ом
func ExportGzip(w *World) ([]byte, error) {
	if w == nil {
		return nil, fmt.Errorf("нет активного мира для экспорта")
	}

	snap := Snapshot{
		World:      w,
		FormatVer:  snapshotFormatVer,
		ExportedBy: "baseplate",
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("сериализация слепка: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("сжатие слепка: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("сжатие слепка: %w", err)
	}

	return buf.Bytes(), nil
}

// ImportGzip распаковывает и разбирает слепок, созданный ExportGzip
func ImportGzip(data []byte) (*Snapshot, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("распаковка слепка: %w", err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("распаковка слепка: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("разбор слепка: %w", err)
	}
	if snap.FormatVer != snapshotFormatVer {
		return nil, fmt.Errorf("неподдерживаемая версия слепка: %d", snap.FormatVer)
	}

	return &snap, nil
}
