package protocol

// Field is one typed value of a message body.
type Field struct {
	Kind Kind
	Uint uint64
	Int  int64
	Num  float64
	Str  string
}

// U8 creates a 1-byte field.
func U8(v uint8) Field { return Field{Kind: KindU8, Uint: uint64(v)} }

// U16 creates a 2-byte field.
func U16(v uint16) Field { return Field{Kind: KindU16, Uint: uint64(v)} }

// U32 creates a 4-byte unsigned field.
func U32(v uint32) Field { return Field{Kind: KindU32, Uint: uint64(v)} }

// Long creates a 4-byte signed field.
func Long(v int32) Field { return Field{Kind: KindLong, Int: int64(v)} }

// LLong creates an 8-byte signed field.
func LLong(v int64) Field { return Field{Kind: KindLLong, Int: v} }

// Str creates a length-prefixed string field.
func Str(v string) Field { return Field{Kind: KindString, Str: v} }

// Fixed creates a fixed-point field carried as round(v * 100).
func Fixed(v float64) Field { return Field{Kind: KindFixed, Num: v} }

// Put appends f to q.
func (f Field) Put(q *Queue) error {
	switch f.Kind {
	case KindU8:
		return q.Put8(uint8(f.Uint))
	case KindU16:
		return q.Put16(uint16(f.Uint))
	case KindU32:
		return q.Put32(uint32(f.Uint))
	case KindLong:
		return q.PutLong(int32(f.Int))
	case KindLLong:
		return q.PutLLong(f.Int)
	case KindString:
		return q.PutString(f.Str, 0)
	case KindFixed:
		return q.PutFixed(f.Num)
	default:
		return ErrUnknownKind
	}
}

// GetField decodes one field of kind k from q.
func GetField(q *Queue, k Kind) (Field, error) {
	f := Field{Kind: k}
	switch k {
	case KindU8:
		v, err := q.Get8()
		if err != nil {
			return Field{}, err
		}
		f.Uint = uint64(v)
	case KindU16:
		v, err := q.Get16()
		if err != nil {
			return Field{}, err
		}
		f.Uint = uint64(v)
	case KindU32:
		v, err := q.Get32()
		if err != nil {
			return Field{}, err
		}
		f.Uint = uint64(v)
	case KindLong:
		v, err := q.GetLong()
		if err != nil {
			return Field{}, err
		}
		f.Int = int64(v)
	case KindLLong:
		v, err := q.GetLLong()
		if err != nil {
			return Field{}, err
		}
		f.Int = v
	case KindString:
		v, err := q.GetString(0)
		if err != nil {
			return Field{}, err
		}
		f.Str = v
	case KindFixed:
		v, err := q.GetFixed()
		if err != nil {
			return Field{}, err
		}
		f.Num = v
	default:
		return Field{}, ErrUnknownKind
	}
	return f, nil
}
