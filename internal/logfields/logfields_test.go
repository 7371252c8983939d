package logfields

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Key drift would break log ingestion schemas.
func TestHelperKeyNames(t *testing.T) {
	assert.Equal(t, KeyBundle, Bundle("org.example").Key)
	assert.Equal(t, "org.example", Bundle("org.example").Value.String())
	assert.Equal(t, KeyCatalog, Catalog("My.docc").Key)
	assert.Equal(t, KeyArchive, Archive("out").Key)
	assert.Equal(t, KeyPage, Page("documentation/mykit").Key)
	assert.Equal(t, KeyPages, Pages(3).Key)
	assert.Equal(t, KeyBatchSize, BatchSize(8).Key)
	assert.Equal(t, KeyStage, Stage("convert").Key)
	assert.Equal(t, KeyDuration, Duration(time.Second).Key)
	assert.Equal(t, KeyPath, Path("/tmp/x").Key)
	assert.Equal(t, KeyURL, URL("http://example").Key)
}

func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	assert.Equal(t, KeyError, attr.Key)
	assert.Empty(t, attr.Value.String())

	attr = Error(errors.New("boom"))
	assert.Equal(t, "boom", attr.Value.String())
}
