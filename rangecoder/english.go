package rangecoder

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

// otherChar stands for every rune that is not in the English table.
// It is taken from the private use area so it won't appear in normal text.
const otherChar = rune(0xE000)

// EnglishModel is a specialized model for compressing English text.
// It uses character frequency statistics typical of English text
// to achieve better compression than a uniform model.
type EnglishModel struct {
	*FrequencyTable
	charToSymbol map[rune]int
	symbolToChar []rune
	otherSymbol  int
}

// NewEnglishModel creates a model optimized for English text compression.
func NewEnglishModel() *EnglishModel {
	// Ordered by approximate frequency: space, e, t, a, o, i, n, s, h, r, etc.
	chars := []rune{
		' ', 'e', 't', 'a', 'o', 'i', 'n', 's', 'h', 'r',
		'd', 'l', 'c', 'u', 'm', 'w', 'f', 'g', 'y', 'p',
		'b', 'v', 'k', 'j', 'x', 'q', 'z',
		'E', 'T', 'A', 'O', 'I', 'N', 'S', 'H', 'R', 'D',
		'L', 'C', 'U', 'M', 'W', 'F', 'G', 'Y', 'P', 'B',
		'V', 'K', 'J', 'X', 'Q', 'Z',
		'.', ',', '!', '?', ';', ':', '-', '\'', '"', '(',
		')', '[', ']', '{', '}', '\n', '\t', '\r',
		'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
		'@', '#', '$', '%', '&', '*', '+', '=', '/', '\\',
		'_', '|', '<', '>', '~', '`',
		otherChar,
	}

	freqs := []uint64{
		1300, 1270, 906, 817, 751, 697, 675, 633, 609, 599, // space, e, t, a, o, i, n, s, h, r
		425, 403, 278, 276, 241, 236, 223, 202, 197, 193, // d, l, c, u, m, w, f, g, y, p
		149, 98, 77, 15, 15, 10, 7, // b, v, k, j, x, q, z
		50, 50, 45, 40, 40, 35, 35, 30, 30, 25, // uppercase E-D
		25, 20, 20, 15, 15, 15, 15, 10, 10, 10, // uppercase L-B
		8, 5, 5, 3, 2, 2, // uppercase V-Z
		100, 80, 20, 15, 10, 8, 50, 30, 40, 15, // punctuation . , ! ? ; : - ' " (
		15, 10, 10, 5, 5, 80, 20, 5, // ) [ ] { } \n \t \r
		50, 50, 50, 50, 50, 50, 50, 50, 50, 50, // digits 0-9
		20, 5, 5, 5, 10, 5, 10, 10, 15, 15, // @ # $ % & * + = / \
		30, 5, 8, 8, 3, 3, // _ | < > ~ `
		100, // other
	}

	charToSymbol := make(map[rune]int, len(chars))
	for i, ch := range chars {
		charToSymbol[ch] = i
	}

	return &EnglishModel{
		FrequencyTable: NewFrequencyTable(freqs),
		charToSymbol:   charToSymbol,
		symbolToChar:   chars,
		otherSymbol:    len(chars) - 1,
	}
}

var (
	englishModel    = NewEnglishModel()
	byteModel       = NewUniformModel(256)
	utf8LengthModel = NewUniformModel(utf8.UTFMax + 1)
)

// EncodeString writes s using the English model.
// The rune count is written first, so no terminator is needed.
func EncodeString(enc *Encoder, s string) error {
	if err := EncodeUvarint(enc, byteModel, uint64(utf8.RuneCountInString(s))); err != nil {
		return errors.Wrap(err, "string length")
	}

	var buf [utf8.UTFMax]byte
	for _, ch := range s {
		symbol, ok := englishModel.charToSymbol[ch]
		if ok && symbol != englishModel.otherSymbol {
			if _, err := enc.Encode(englishModel, symbol); err != nil {
				return err
			}
			continue
		}

		// Not in the table: escape and write the raw UTF-8 bytes.
		if _, err := enc.Encode(englishModel, englishModel.otherSymbol); err != nil {
			return err
		}
		n := utf8.EncodeRune(buf[:], ch)
		if _, err := enc.Encode(utf8LengthModel, n); err != nil {
			return err
		}
		for _, b := range buf[:n] {
			if _, err := enc.Encode(byteModel, int(b)); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeString reads a string written by EncodeString.
func DecodeString(dec *Decoder) (string, error) {
	length, err := DecodeUvarint(dec, byteModel)
	if err != nil {
		return "", errors.Wrap(err, "string length")
	}

	result := make([]rune, 0, min(length, 1<<16))
	for uint64(len(result)) < length {
		symbol, err := dec.Decode(englishModel)
		if err != nil {
			return "", err
		}
		if symbol != englishModel.otherSymbol {
			result = append(result, englishModel.symbolToChar[symbol])
			continue
		}

		n, err := dec.Decode(utf8LengthModel)
		if err != nil {
			return "", err
		}
		var buf [utf8.UTFMax]byte
		for i := 0; i < n; i++ {
			b, err := dec.Decode(byteModel)
			if err != nil {
				return "", err
			}
			buf[i] = byte(b)
		}
		ch, _ := utf8.DecodeRune(buf[:n])
		result = append(result, ch)
	}

	return string(result), nil
}

// EncodeUvarint writes value as a sequence of 7-bit groups, least
// significant first, each coded as one byte with model.
// model must cover the indices [0, 255].
func EncodeUvarint(enc *Encoder, model Model, value uint64) error {
	for {
		b := byte(value & 0x7F)
		value >>= 7
		if value != 0 {
			b |= 0x80
		}
		if _, err := enc.Encode(model, int(b)); err != nil {
			return err
		}
		if value == 0 {
			return nil
		}
	}
}

// DecodeUvarint reads a value written by EncodeUvarint.
func DecodeUvarint(dec *Decoder, model Model) (uint64, error) {
	var value uint64
	for i := 0; i < 10; i++ { // Max 10 bytes for uint64
		b, err := dec.Decode(model)
		if err != nil {
			return 0, err
		}
		if i == 9 && b > 1 {
			return 0, errors.Wrap(ErrCorrupt, "varint overflows 64 bits")
		}
		value |= uint64(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return value, nil
		}
	}
	return 0, errors.Wrap(ErrCorrupt, "varint longer than 10 bytes")
}
