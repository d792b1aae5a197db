package recording

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/bytearena/skirmish/common/utils"
)

const (
	metadataEntry = "RecordMetadata"
	recordEntry   = "Record"
)

// SingleArenaRecorder buffers a single record in memory and archives it on Close; the UUID is informative only
type SingleArenaRecorder struct {
	lock           sync.Mutex
	buffer         strings.Builder
	filename       string
	recordMetadata *RecordMetadata
}

func MakeSingleArenaRecorder(filename string) *SingleArenaRecorder {
	return &SingleArenaRecorder{
		filename: filename,
	}
}

func (r *SingleArenaRecorder) Stop() {}

func (r *SingleArenaRecorder) Close(UUID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.recordMetadata == nil {
		return errors.Errorf("record %s has no metadata", UUID)
	}

	metadata, err := json.Marshal(*r.recordMetadata)
	if err != nil {
		return errors.Wrap(err, "could not serialize RecordMetadata")
	}

	files := []ArchiveFile{
		{Name: metadataEntry, Body: string(metadata)},
		{Name: recordEntry, Body: r.buffer.String()},
	}

	if err := MakeArchive(r.filename, files); err != nil {
		return errors.Wrap(err, "could not create record archive")
	}

	utils.Debug("SingleArenaRecorder", "wrote record archive "+r.filename)
	return nil
}

func (r *SingleArenaRecorder) RecordMetadata(UUID string, metadata RecordMetadata) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.recordMetadata = &metadata
	utils.Debug("SingleArenaRecorder", "created RecordMetadata for "+UUID)

	return nil
}

func (r *SingleArenaRecorder) Record(UUID string, msg string) error {
	if strings.ContainsRune(msg, '\n') {
		return errors.Errorf("record %s: a frame must fit on one line", UUID)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.buffer.WriteString(msg)
	r.buffer.WriteByte('\n')

	return nil
}
