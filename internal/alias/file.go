package alias

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// File is the user-editable aliases.yaml document.
type File struct {
	Aliases  []Entry         `yaml:"aliases" validate:"dive"`
	Commands []CustomCommand `yaml:"commands,omitempty" validate:"dive"`
}

// CustomCommand is a user-defined phrase that runs one script body.
type CustomCommand struct {
	Phrase  string `yaml:"phrase" validate:"required,max=128"`
	Script  string `yaml:"script" validate:"required"`
	Message string `yaml:"message,omitempty" validate:"max=256"`
	Match   string `yaml:"match,omitempty" validate:"omitempty,oneof=prefix exact"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadFile reads and validates path. A missing file yields an empty document.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("read alias file %q: %w", path, err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return File{}, fmt.Errorf("parse alias file %q: %w", path, err)
	}
	return f, nil
}

// ParseFile decodes and validates one aliases.yaml payload.
func ParseFile(data []byte) (File, error) {
	var f File
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, err
	}
	if err := validate.Struct(f); err != nil {
		return File{}, describeValidation(err)
	}
	for i := range f.Commands {
		f.Commands[i].Phrase = Normalize(f.Commands[i].Phrase)
		if f.Commands[i].Match == "" {
			f.Commands[i].Match = "exact"
		}
	}
	return f, nil
}

// SaveAlias appends or updates one alias entry in the file at path.
func SaveAlias(path string, entry Entry) error {
	f, err := LoadFile(path)
	if err != nil {
		return err
	}

	entry = Entry{Alias: Normalize(entry.Alias), Target: strings.TrimSpace(entry.Target)}
	if err := validate.Struct(entry); err != nil {
		return describeValidation(err)
	}

	replaced := false
	for i := range f.Aliases {
		if Normalize(f.Aliases[i].Alias) == entry.Alias {
			f.Aliases[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		f.Aliases = append(f.Aliases, entry)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode alias file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ensure alias dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write alias file: %w", err)
	}
	return os.Rename(tmp, path)
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "File.")
		field = strings.TrimPrefix(field, "Entry.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(field)))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", strings.ToLower(field), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", strings.ToLower(field), fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
