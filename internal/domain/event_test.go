package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvent_Mergeable(t *testing.T) {
	lunch := Event{Description: "Lunch", Start: at(5, 11, 0), End: at(5, 13, 0)}

	tests := []struct {
		name  string
		other Event
		want  bool
	}{
		{"forward adjacency", Event{Description: "Lunch", Start: at(5, 13, 0), End: at(5, 15, 0)}, true},
		{"backward adjacency", Event{Description: "Lunch", Start: at(5, 9, 0), End: at(5, 11, 0)}, true},
		{"gap", Event{Description: "Lunch", Start: at(5, 14, 0), End: at(5, 15, 0)}, false},
		{"overlap", Event{Description: "Lunch", Start: at(5, 12, 0), End: at(5, 14, 0)}, false},
		{"different description", Event{Description: "Brunch", Start: at(5, 13, 0), End: at(5, 15, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lunch.Mergeable(tt.other))
			assert.Equal(t, tt.want, tt.other.Mergeable(lunch), "symmetric")
		})
	}
}

func TestEvent_Occurring(t *testing.T) {
	lunch := Event{Description: "Lunch", Start: at(5, 11, 0), End: at(5, 13, 0)}

	assert.True(t, lunch.Occurring(at(5, 11, 0)), "start is inclusive")
	assert.True(t, lunch.Occurring(at(5, 13, 0)), "end is inclusive")
	assert.False(t, lunch.Occurring(at(5, 13, 1)))
	assert.False(t, lunch.Occurring(at(5, 10, 59)))
}
