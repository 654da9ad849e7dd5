package protocol

import "fmt"

// DecodeFields reads one field per kind from body. Every byte of body must be
// consumed; trailing bytes are reported with ErrKindMismatch.
func DecodeFields(body *Queue, kinds []Kind) ([]Field, error) {
	fields := make([]Field, 0, len(kinds))
	for i, k := range kinds {
		f, err := GetField(body, k)
		if err != nil {
			return nil, fmt.Errorf("field %d (%s): %w", i, k, err)
		}
		fields = append(fields, f)
	}
	if body.Size() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrKindMismatch, body.Size())
	}
	return fields, nil
}

// Decode consumes one frame from q and decodes its body with kinds.
func Decode(q *Queue, kinds []Kind) (Message, error) {
	op, body, err := q.Frame()
	if err != nil {
		return Message{}, err
	}
	fields, err := DecodeFields(body, kinds)
	if err != nil {
		return Message{Op: op}, err
	}
	return Message{Op: op, Fields: fields}, nil
}
