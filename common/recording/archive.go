package recording

import (
	"archive/zip"
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type ArchiveFile struct {
	Name string
	Body string
}

func MakeArchive(filename string, files []ArchiveFile) error {
	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, file := range files {
		f, err := w.Create(file.Name)
		if err != nil {
			return err
		}

		if _, err := io.WriteString(f, file.Body); err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return err
	}

	return out.Close()
}

// ReadArchive loads a record archive written by SingleArenaRecorder
func ReadArchive(filename string) (RecordMetadata, []string, error) {
	var metadata RecordMetadata
	var frames []string

	r, err := zip.OpenReader(filename)
	if err != nil {
		return metadata, nil, errors.Wrapf(err, "could not open record %s", filename)
	}
	defer r.Close()

	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return metadata, nil, err
		}

		switch f.Name {
		case metadataEntry:
			err = json.NewDecoder(rc).Decode(&metadata)
		case recordEntry:
			scanner := bufio.NewScanner(rc)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					frames = append(frames, line)
				}
			}
			err = scanner.Err()
		}

		rc.Close()
		if err != nil {
			return metadata, nil, errors.Wrapf(err, "could not read %s from %s", f.Name, filename)
		}
	}

	return metadata, frames, nil
}
