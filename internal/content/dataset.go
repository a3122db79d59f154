package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Initial is a leading token a topic starts from.
type Initial struct {
	Key  string `json:"key" validate:"required,max=16"`
	Rare int    `json:"rare" validate:"min=0"`
}

// Word is a topic word with its inverted ("not") form.
type Word struct {
	Normal string `json:"normal" validate:"required,max=64"`
	Not    string `json:"not" validate:"required,max=64"`
	Rare   int    `json:"rare" validate:"min=0"`
}

// DataSet is the content file consumed by the topic generator.
type DataSet struct {
	Initial []Initial `json:"initial" validate:"min=1,dive"`
	Words   []Word    `json:"words" validate:"min=1,dive"`
}

func (i Initial) Rarity() int { return i.Rare }

func (w Word) Rarity() int { return w.Rare }

// ErrInvalid marks content that fails decoding or validation.
var ErrInvalid = errors.New("invalid content")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Decode reads and validates a data set.
func Decode(r io.Reader) (*DataSet, error) {
	var data DataSet
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	data.normalize()
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// Load opens path and decodes it.
func Load(path string) (*DataSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file)
}

// Encode writes the data set as indented JSON, the same layout the editor downloads.
func (d *DataSet) Encode(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(d)
}

func (d *DataSet) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: empty", ErrInvalid)
	}
	if err := validatorInstance().Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %s", ErrInvalid, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Clone returns a deep copy so callers can edit without touching shared state.
func (d *DataSet) Clone() *DataSet {
	if d == nil {
		return nil
	}
	out := &DataSet{
		Initial: make([]Initial, len(d.Initial)),
		Words:   make([]Word, len(d.Words)),
	}
	copy(out.Initial, d.Initial)
	copy(out.Words, d.Words)
	return out
}

func (d *DataSet) normalize() {
	for i := range d.Initial {
		d.Initial[i].Key = strings.TrimSpace(d.Initial[i].Key)
	}
	for i := range d.Words {
		d.Words[i] = d.Words[i].normalized()
	}
}

func (w Word) normalized() Word {
	w.Normal = strings.TrimSpace(w.Normal)
	w.Not = strings.TrimSpace(w.Not)
	return w
}
