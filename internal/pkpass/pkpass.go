package pkpass

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const passFile = "pass.json"

// UnreadablePassError reports a wallet pass that yields no barcode.
type UnreadablePassError struct {
	Path   string
	Reason string
	Err    error
}

func (e *UnreadablePassError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unreadable pass %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("unreadable pass %s: %s", e.Path, e.Reason)
}

func (e *UnreadablePassError) Unwrap() error {
	return e.Err
}

// Pass is the subset of pass.json the flight log uses.
type Pass struct {
	Message          string
	Format           string
	RelevantDate     *time.Time
	SerialNumber     string
	OrganizationName string
	Description      string
}

type barcode struct {
	Message string `json:"message"`
	Format  string `json:"format"`
}

type passJSON struct {
	Barcodes         []barcode `json:"barcodes"`
	Barcode          *barcode  `json:"barcode"`
	RelevantDate     string    `json:"relevantDate"`
	SerialNumber     string    `json:"serialNumber"`
	OrganizationName string    `json:"organizationName"`
	Description      string    `json:"description"`
}

// ExtractBarcodeMessage returns the barcode payload of the pass at path.
func ExtractBarcodeMessage(path string) (string, error) {
	p, err := Read(path)
	if err != nil {
		return "", err
	}
	return p.Message, nil
}

// Read opens the pass archive at path and decodes its pass.json.
func Read(path string) (*Pass, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &UnreadablePassError{Path: path, Reason: "cannot open archive", Err: err}
	}
	defer zr.Close()

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == passFile {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, &UnreadablePassError{Path: path, Reason: "archive has no " + passFile}
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, &UnreadablePassError{Path: path, Reason: "cannot open " + passFile, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &UnreadablePassError{Path: path, Reason: "cannot read " + passFile, Err: err}
	}
	return parse(path, data)
}

func parse(path string, data []byte) (*Pass, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var pj passJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, &UnreadablePassError{Path: path, Reason: "invalid " + passFile, Err: err}
	}

	var code *barcode
	for i := range pj.Barcodes {
		if pj.Barcodes[i].Message != "" {
			code = &pj.Barcodes[i]
			break
		}
	}
	if code == nil && pj.Barcode != nil && pj.Barcode.Message != "" {
		code = pj.Barcode
	}
	if code == nil {
		return nil, &UnreadablePassError{Path: path, Reason: "no barcode message"}
	}

	pass := &Pass{
		Message:          code.Message,
		Format:           code.Format,
		SerialNumber:     pj.SerialNumber,
		OrganizationName: pj.OrganizationName,
		Description:      pj.Description,
	}
	if pj.RelevantDate != "" {
		if t, err := ParseRelevantDate(pj.RelevantDate); err == nil {
			pass.RelevantDate = &t
		}
	}
	return pass, nil
}

var relevantDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z0700",
}

// ParseRelevantDate accepts the W3C date forms wallet passes use,
// with or without seconds.
func ParseRelevantDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range relevantDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognised relevantDate " + s)
}

// ArchiveName is the file name an imported pass is archived under,
// e.g. 20240102T0304Z_AA.pkpass.
func ArchiveName(relevant time.Time, carrier string) string {
	carrier = strings.ToUpper(strings.TrimSpace(carrier))
	if carrier == "" {
		carrier = "XX"
	}
	return fmt.Sprintf("%s_%s.pkpass", relevant.UTC().Format("20060102T1504Z"), carrier)
}
