// Package exiftest builds images carrying synthetic EXIF blocks for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/photomarathon/pipeline/internal/exif"
)

const (
	tagMake              uint16 = 0x010F
	tagModel             uint16 = 0x0110
	tagSoftware          uint16 = 0x0131
	tagDateTime          uint16 = 0x0132
	tagExifIFDPointer    uint16 = 0x8769
	tagDateTimeOriginal  uint16 = 0x9003
	tagDateTimeDigitized uint16 = 0x9004
	tagLensModel         uint16 = 0xA434

	typeASCII uint16 = 2
	typeLong  uint16 = 4
)

type entry struct {
	tag   uint16
	typ   uint16
	value []byte
	long  uint32
}

// TIFF renders d as a little endian TIFF structure, the payload of a JPEG APP1 segment.
func TIFF(d exif.Data) []byte {
	ifd0 := asciiEntries(map[uint16]string{
		tagMake:     d.Make,
		tagModel:    d.Model,
		tagSoftware: d.Software,
		tagDateTime: d.ModifyDate,
	})

	digitized := d.DateTimeDigitized
	if digitized == "" {
		digitized = d.CreateDate
	}
	sub := asciiEntries(map[uint16]string{
		tagDateTimeOriginal:  d.DateTimeOriginal,
		tagDateTimeDigitized: digitized,
		tagLensModel:         d.LensModel,
	})

	le := binary.LittleEndian

	n0 := len(ifd0)
	if len(sub) > 0 {
		n0++
	}
	ifd0Off := 8
	subOff := ifd0Off + 2 + 12*n0 + 4
	dataOff := subOff
	if len(sub) > 0 {
		dataOff += 2 + 12*len(sub) + 4
	}

	if len(sub) > 0 {
		ifd0 = append(ifd0, entry{tag: tagExifIFDPointer, typ: typeLong, long: uint32(subOff)})
		sort.Slice(ifd0, func(i, j int) bool { return ifd0[i].tag < ifd0[j].tag })
	}

	head := make([]byte, dataOff)
	var data []byte

	copy(head, "II")
	le.PutUint16(head[2:], 42)
	le.PutUint32(head[4:], uint32(ifd0Off))

	writeDir := func(off int, entries []entry) {
		le.PutUint16(head[off:], uint16(len(entries)))
		pos := off + 2
		for _, e := range entries {
			le.PutUint16(head[pos:], e.tag)
			le.PutUint16(head[pos+2:], e.typ)
			if e.typ == typeLong {
				le.PutUint32(head[pos+4:], 1)
				le.PutUint32(head[pos+8:], e.long)
			} else {
				le.PutUint32(head[pos+4:], uint32(len(e.value)))
				if len(e.value) <= 4 {
					copy(head[pos+8:pos+12], e.value)
				} else {
					le.PutUint32(head[pos+8:], uint32(dataOff+len(data)))
					data = append(data, e.value...)
				}
			}
			pos += 12
		}
		// no next IFD
		le.PutUint32(head[pos:], 0)
	}

	writeDir(ifd0Off, ifd0)
	if len(sub) > 0 {
		writeDir(subOff, sub)
	}

	return append(head, data...)
}

func asciiEntries(values map[uint16]string) []entry {
	entries := make([]entry, 0, len(values))
	for tag, v := range values {
		if v == "" {
			continue
		}
		entries = append(entries, entry{tag: tag, typ: typeASCII, value: append([]byte(v), 0)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })
	return entries
}

// JPEG encodes a solid w x h image and splices an APP1 EXIF segment holding d right after SOI.
func JPEG(w, h int, d exif.Data) []byte {
	plain := PlainJPEG(w, h)

	payload := append([]byte("Exif\x00\x00"), TIFF(d)...)
	segment := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(len(payload)+2))
	segment = append(segment, payload...)

	out := make([]byte, 0, len(plain)+len(segment))
	out = append(out, plain[:2]...)
	out = append(out, segment...)
	out = append(out, plain[2:]...)
	return out
}

// PlainJPEG is a JPEG without any EXIF block
func PlainJPEG(w, h int) []byte {
	return encode(w, h, imaging.JPEG)
}

// PNG is a PNG image, which never carries EXIF here
func PNG(w, h int) []byte {
	return encode(w, h, imaging.PNG)
}

func encode(w, h int, format imaging.Format) []byte {
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 120, B: 40, A: 255})

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, format); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
