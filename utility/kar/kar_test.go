// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/exp/mmap"

	"github.com/devblok/vkboot/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildArchive(t *testing.T) []byte {
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	if err := builder.Add("test", strings.NewReader(testString1)); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("test2", strings.NewReader(testString2)); err != nil {
		t.Fatal(err)
	}

	buf := bytes.NewBuffer([]byte{})
	if written, err := builder.WriteTo(buf); err != nil {
		t.Fatal(err)
	} else {
		t.Logf("written %d", written)
	}
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	ar, err := kar.Open(bytes.NewReader(buildArchive(t)))
	if err != nil {
		t.Fatal(err)
	}

	f, err := ar.Open("test2")
	if err != nil {
		t.Fatal(err)
	}
	if f.Size() != int64(len(testString2)) {
		t.Errorf("size %d", f.Size())
	}

	result, err := ioutil.ReadAll(f)
	if err != nil {
		t.Error(err)
	}
	if string(result) != testString2 {
		t.Error("test string does not match up")
	}
}

func TestCreateAndReadAll(t *testing.T) {
	ar, err := kar.Open(bytes.NewReader(buildArchive(t)))
	if err != nil {
		t.Fatal(err)
	}

	if names := ar.Names(); len(names) != 2 || names[0] != "test" || names[1] != "test2" {
		t.Errorf("unexpected index %v", names)
	}
	if ar.Header().Author != "devblok" {
		t.Error("header was not preserved")
	}

	for name, expected := range map[string]string{"test": testString1, "test2": testString2} {
		f, err := ar.ReadAll(name)
		if err != nil {
			t.Fatal(err)
		}
		if string(f) != expected {
			t.Errorf("%s: test string does not match up", name)
		}
	}
}

func TestReadMissing(t *testing.T) {
	ar, err := kar.Open(bytes.NewReader(buildArchive(t)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ar.ReadAll("missing"); err != kar.ErrNotExist {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestOpenNotArchive(t *testing.T) {
	for _, contents := range []string{"", "KAR", "TAR\x00 definitely not an archive"} {
		if _, err := kar.Open(strings.NewReader(contents)); err != kar.ErrFileFormat {
			t.Errorf("%q: expected ErrFileFormat, got %v", contents, err)
		}
	}
}

func TestOpenmmap(t *testing.T) {
	dir, err := ioutil.TempDir("", "kartest")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	name := filepath.Join(dir, "opentest.kar")
	if err := ioutil.WriteFile(name, buildArchive(t), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := mmap.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ar, err := kar.Open(r)
	if err != nil {
		t.Fatal(err)
	}
	if f, err := ar.ReadAll("test"); err != nil {
		t.Error(err)
	} else if string(f) != testString1 {
		t.Error("result is not expected value")
	}
}

func corruptArchive(t *testing.T, entry kar.IndexEntry) []byte {
	var header bytes.Buffer
	if err := gob.NewEncoder(&header).Encode(kar.Header{
		Author: "devblok",
		Index:  []kar.IndexEntry{entry},
	}); err != nil {
		t.Fatal(err)
	}

	sizeField := make([]byte, kar.HeaderSizeNumberLength)
	binary.LittleEndian.PutUint64(sizeField, uint64(header.Len()))

	var archive bytes.Buffer
	archive.Write(kar.Magic[:])
	archive.Write(sizeField)
	archive.Write(header.Bytes())
	archive.Write([]byte{0, 0, 0, 0})
	return archive.Bytes()
}

func TestOpenCorruptIndex(t *testing.T) {
	tests := map[string]kar.IndexEntry{
		"negative size":            {Name: "shaders/vert.spv", Size: -1, CompressedSize: 4},
		"oversized":                {Name: "shaders/vert.spv", Size: 1 << 50, CompressedSize: 4},
		"negative compressed size": {Name: "shaders/vert.spv", Size: 4, CompressedSize: -4},
		"oversized compressed":     {Name: "shaders/vert.spv", Size: 4, CompressedSize: 1 << 50},
		"negative offset":          {Name: "shaders/vert.spv", Offset: -8, Size: 4, CompressedSize: 4},
	}

	for name, entry := range tests {
		t.Run(name, func(t *testing.T) {
			ar, err := kar.Open(bytes.NewReader(corruptArchive(t, entry)))
			if err != kar.ErrFileFormat {
				t.Fatalf("expected ErrFileFormat, got %v", err)
			}
			if ar != nil {
				t.Error("archive returned for corrupt index")
			}
		})
	}
}
