package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
)

// Section and option names stay case-sensitive and the last occurrence of a
// duplicated option wins. Surrounding quotes are part of the value, indented
// lines continue the previous value and a trailing backslash is literal.
var loadOptions = ini.LoadOptions{
	PreserveSurroundedQuote:    true,
	AllowPythonMultilineValues: true,
	IgnoreContinuation:         true,
}

const utf8BOM = "\xef\xbb\xbf"

// Document is an in-memory copy of an INI file.
type Document struct {
	file *ini.File
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{file: ini.Empty(loadOptions)}
}

// Parse decodes INI text into a Document. Options that appear before the
// first section header are rejected.
func Parse(data []byte) (*Document, error) {
	if line, ok := headerlessOption(data); ok {
		return nil, fmt.Errorf("parse ini: %w: %q", ErrMissingSectionHeader, line)
	}
	file, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("parse ini: %w", err)
	}
	return &Document{file: file}, nil
}

// HasSection reports whether the document declares the named section. The
// implicit DEFAULT section never counts.
func (d *Document) HasSection(name string) bool {
	if name == "" || name == ini.DefaultSection {
		return false
	}
	_, err := d.file.GetSection(name)
	return err == nil
}

// Sections returns the declared section names in file order.
func (d *Document) Sections() []string {
	names := d.file.SectionStrings()
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == ini.DefaultSection {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Value looks up option in section, falling back to the DEFAULT section when
// the section exists but does not define the option.
func (d *Document) Value(section, option string) (string, bool) {
	if !d.HasSection(section) || option == "" {
		return "", false
	}

	sec, _ := d.file.GetSection(section)
	if ownsKey(sec, option) {
		return sec.Key(option).String(), true
	}

	defaults, err := d.file.GetSection(ini.DefaultSection)
	if err == nil && ownsKey(defaults, option) {
		return defaults.Key(option).String(), true
	}
	return "", false
}

// SetValue stores value under section/option. The section must already exist;
// the option is created when missing.
func (d *Document) SetValue(section, option, value string) error {
	if section == "" || option == "" {
		return ErrEmptyName
	}
	if err := checkOptionName(option); err != nil {
		return err
	}
	if _, ok := encodeValue(value); !ok {
		return fmt.Errorf("%w: value of %q", ErrUnencodable, option)
	}
	if !d.HasSection(section) {
		return fmt.Errorf("%w: %q", ErrSectionNotFound, section)
	}

	sec, _ := d.file.GetSection(section)
	if ownsKey(sec, option) {
		sec.Key(option).SetValue(value)
		return nil
	}
	if _, err := sec.NewKey(option, value); err != nil {
		return fmt.Errorf("create option %q: %w", option, err)
	}
	return nil
}

// WriteTo serialises the full document. Every value is written so that Parse
// reads it back unchanged. DEFAULT is only written when it holds options, and
// always under an explicit header.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, sec := range d.file.Sections() {
		keys := sec.Keys()
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}

		writeComment(&buf, sec.Comment)
		buf.WriteString("[" + sec.Name() + "]\n")
		for _, key := range keys {
			value, ok := encodeValue(key.Value())
			if !ok {
				return 0, fmt.Errorf("%w: value of %q", ErrUnencodable, key.Name())
			}
			writeComment(&buf, key.Comment)
			buf.WriteString(encodeOptionName(key.Name()) + " = " + value + "\n")
		}
	}
	return buf.WriteTo(w)
}

// Bytes returns the serialised document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write ini: %w", err)
	}
	return buf.Bytes(), nil
}

// ownsKey checks the section's own keys only. Section.GetKey also walks
// dotted parent sections ("Platform.X" -> "Platform"), which is not wanted here.
func ownsKey(sec *ini.Section, option string) bool {
	return slices.Contains(sec.KeyStrings(), option)
}

// headerlessOption returns the first option line found before any section
// header. The parser would otherwise file it under DEFAULT.
func headerlessOption(data []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(data, []byte(utf8BOM))))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if line[0] == '[' {
			return "", false
		}
		return line, true
	}
	return "", false
}

// checkOptionName rejects names the parser would read back differently:
// surrounding blanks are trimmed, "-" is an auto-increment key and line
// breaks or backticks cannot be quoted.
func checkOptionName(name string) error {
	switch {
	case strings.TrimSpace(name) != name,
		name == "-",
		strings.ContainsAny(name, "\r\n`"):
		return fmt.Errorf("%w: option %q", ErrUnencodable, name)
	}
	return nil
}

func encodeOptionName(name string) string {
	if strings.ContainsAny(name, `"=:`) || strings.ContainsAny(name[:1], "#;[") {
		return "`" + name + "`"
	}
	return name
}

// encodeValue quotes value when the parser would otherwise strip, split or
// reinterpret it. A backtick pair keeps the content verbatim as long as the
// content holds no backtick; triple double quotes cover the rest, provided
// they never occur before the last line of a multi-line value.
func encodeValue(value string) (string, bool) {
	if !needsQuoting(value) {
		return value, true
	}
	if !strings.Contains(value, "`") {
		return "`" + value + "`", true
	}

	if i := strings.LastIndex(value, "\n"); i >= 0 && strings.Contains(value[:i], `"""`) {
		return "", false
	}
	return `"""` + value + `"""`, true
}

func needsQuoting(value string) bool {
	if value == "" {
		return false
	}
	return strings.TrimSpace(value) != value ||
		strings.ContainsAny(value, "\r\n#;") ||
		strings.HasPrefix(value, "`") ||
		strings.HasPrefix(value, `"""`)
}

func writeComment(buf *bytes.Buffer, comment string) {
	if comment == "" {
		return
	}
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line[0] != '#' && line[0] != ';' {
			line = "; " + line
		}
		buf.WriteString(line + "\n")
	}
}
