package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderSetsCategoryAndContext(t *testing.T) {
	base := NewStd("linker exited with code 137")
	err := New(base).
		Component("linker").
		Category(CategoryLinkerExecution).
		Context("video", "sample01").
		Context("exit_code", 137).
		Build()

	assert.Equal(t, "linker exited with code 137", err.Error())
	assert.Equal(t, "linker", err.GetComponent())
	assert.Equal(t, string(CategoryLinkerExecution), err.GetCategory())

	ctx := err.GetContext()
	require.NotNil(t, ctx)
	assert.Equal(t, "sample01", ctx["video"])
	assert.Equal(t, 137, ctx["exit_code"])
}

func TestUnwrapPreservesOriginalError(t *testing.T) {
	sentinel := NewStd("workspace removal failed")
	wrapped := New(fmt.Errorf("worker 2: %w", sentinel)).
		Category(CategoryWorkspace).
		Build()

	assert.True(t, Is(wrapped, sentinel))
}

func TestCategoryInference(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected ErrorCategory
	}{
		{"oom marker", "java.lang.OutOfMemoryError: Java heap space", CategoryResourceExhaustion},
		{"timeout", "context deadline exceeded", CategoryTimeout},
		{"parse failure", "failed to parse detection row", CategoryFileParsing},
		{"missing file", "open frames: no such file or directory", CategoryNotFound},
		{"validation", "invalid memory budget", CategoryValidation},
		{"fallback", "something unexpected", CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(NewStd(tt.message)).Build()
			assert.Equal(t, tt.expected, err.Category)
		})
	}
}

func TestIsCategory(t *testing.T) {
	err := New(NewStd("boom")).Category(CategoryDatabase).Build()
	wrapped := fmt.Errorf("saving fixes: %w", err)

	assert.True(t, IsCategory(wrapped, CategoryDatabase))
	assert.False(t, IsCategory(wrapped, CategoryTimeout))
	assert.False(t, IsCategory(nil, CategoryDatabase))
}

func TestTimestampIsSet(t *testing.T) {
	before := time.Now()
	err := New(NewStd("x")).Build()
	after := time.Now()

	ts := err.GetTimestamp()
	assert.False(t, ts.Before(before))
	assert.False(t, ts.After(after))
}
