package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	wavFormatPCM = 1
	wavBitDepth  = 16
)

var (
	// errNotWAV is returned when the RIFF/WAVE header is missing.
	errNotWAV = errors.New("not a RIFF/WAVE file")
	// errUnsupportedWAV is returned for anything but 16-bit PCM.
	errUnsupportedWAV = errors.New("only 16-bit PCM WAV is supported")
	// errNoWAVData is returned when the fmt or data chunk is missing.
	errNoWAVData = errors.New("missing fmt or data chunk")
)

// wavFormat is the fmt chunk of a WAV file.
type wavFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// ParseWAV decodes 16-bit PCM WAV data, mixing multiple channels down to mono.
func ParseWAV(data []byte) (Tone, error) {
	reader := bytes.NewReader(data)

	var header [12]byte
	if _, err := io.ReadFull(reader, header[:]); err != nil {
		return Tone{}, errNotWAV
	}

	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Tone{}, errNotWAV
	}

	var (
		format  *wavFormat
		payload []byte
	)

	for payload == nil {
		var (
			chunkID   [4]byte
			chunkSize uint32
		)

		if _, err := io.ReadFull(reader, chunkID[:]); err != nil {
			break
		}

		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return Tone{}, fmt.Errorf("read chunk size: %w", err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			format = new(wavFormat)
			if err := binary.Read(reader, binary.LittleEndian, format); err != nil {
				return Tone{}, fmt.Errorf("read fmt chunk: %w", err)
			}

			// Skip any extra format bytes.
			if _, err := reader.Seek(int64(chunkSize)-16, io.SeekCurrent); err != nil {
				return Tone{}, fmt.Errorf("skip fmt chunk: %w", err)
			}
		case "data":
			size := min(int(chunkSize), reader.Len())
			payload = make([]byte, size)

			if _, err := io.ReadFull(reader, payload); err != nil {
				return Tone{}, fmt.Errorf("read data chunk: %w", err)
			}
		default:
			// Chunks are padded to an even size.
			skip := int64(chunkSize) + int64(chunkSize%2)
			if _, err := reader.Seek(skip, io.SeekCurrent); err != nil {
				return Tone{}, fmt.Errorf("skip chunk: %w", err)
			}
		}
	}

	if format == nil || payload == nil {
		return Tone{}, errNoWAVData
	}

	if format.AudioFormat != wavFormatPCM || format.BitsPerSample != wavBitDepth || format.Channels == 0 {
		return Tone{}, errUnsupportedWAV
	}

	channels := int(format.Channels)
	frames := len(payload) / (2 * channels)
	samples := make([]int16, frames)

	for i := range frames {
		var sum int

		for c := range channels {
			offset := 2 * (i*channels + c)
			sum += int(int16(binary.LittleEndian.Uint16(payload[offset:]))) //nolint:gosec // Two's complement reinterpretation.
		}

		samples[i] = int16(sum / channels) //nolint:gosec // Average of int16 values fits.
	}

	return Tone{SampleRate: int(format.SampleRate), Samples: samples}, nil
}

// EncodeWAV renders the tone as a mono 16-bit PCM WAV file.
func EncodeWAV(tone Tone) []byte {
	var (
		buf      bytes.Buffer
		dataSize = uint32(2 * len(tone.Samples)) //nolint:gosec // Tones are far below 4 GiB.
	)

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, wavFormat{
		AudioFormat:   wavFormatPCM,
		Channels:      1,
		SampleRate:    uint32(tone.SampleRate), //nolint:gosec // Sample rates are small.
		ByteRate:      uint32(tone.SampleRate * 2), //nolint:gosec // Sample rates are small.
		BlockAlign:    2,
		BitsPerSample: wavBitDepth,
	})
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	_ = binary.Write(&buf, binary.LittleEndian, tone.Samples)

	return buf.Bytes()
}
