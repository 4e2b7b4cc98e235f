package ordering

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPosition(t *testing.T) {
	tests := []struct {
		wantErr   error
		name      string
		positions []float64
		index     int
		want      float64
	}{
		{name: "empty sequence", positions: nil, index: 0, want: 0},
		{name: "append", positions: []float64{0, 1, 2}, index: 3, want: 3},
		{name: "prepend", positions: []float64{0, 1, 2}, index: 0, want: -1},
		{name: "middle", positions: []float64{0, 1, 2}, index: 1, want: 0.5},
		{name: "middle uneven", positions: []float64{1, 4}, index: 1, want: 2.5},
		{name: "negative index", positions: []float64{0}, index: -1, wantErr: ErrInvalidIndex},
		{name: "index past end", positions: []float64{0}, index: 2, wantErr: ErrInvalidIndex},
		{name: "unordered", positions: []float64{2, 1}, index: 1, wantErr: ErrUnordered},
		{name: "nan", positions: []float64{0, math.NaN()}, index: 1, wantErr: ErrInvalidPosition},
		{name: "inf", positions: []float64{math.Inf(1)}, index: 1, wantErr: ErrInvalidPosition},
		{name: "equal neighbours", positions: []float64{1, 1}, index: 1, wantErr: ErrPositionExhausted},
		{name: "adjacent floats", positions: []float64{1, math.Nextafter(1, 2)}, index: 1, wantErr: ErrPositionExhausted},
		{name: "append beyond precision", positions: []float64{1e17}, index: 1, wantErr: ErrPositionExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextPosition(tt.positions, tt.index)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextPosition_StrictlyBetween(t *testing.T) {
	positions := []float64{-3.5, -1, 0, 0.25, 7, 1e6}

	for i := 0; i <= len(positions); i++ {
		got, err := NextPosition(positions, i)
		require.NoError(t, err)

		if i > 0 {
			assert.Greater(t, got, positions[i-1])
		}
		if i < len(positions) {
			assert.Less(t, got, positions[i])
		}
	}
}

func TestNextPosition_ConvergesToExhaustion(t *testing.T) {
	positions := []float64{1, 2}

	inserted := 0
	for ; inserted < 200; inserted++ {
		next, err := NextPosition(positions, 1)
		if err != nil {
			require.ErrorIs(t, err, ErrPositionExhausted)
			break
		}
		// Следующая вставка снова сразу после первого элемента
		positions = []float64{positions[0], next}
	}

	// Промежуток [1, 2) делится пополам 52 раза до соседних float64
	assert.Equal(t, 52, inserted)

	entities := []Entity{{ID: "a", Position: 1}, {ID: "b", Position: positions[1]}, {ID: "c", Position: 2}}
	renumbered := Renumber(entities)
	for i, e := range renumbered {
		assert.Equal(t, float64(i), e.Position)
	}

	next, err := NextPosition([]float64{0, 1, 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.5, next)
}

func TestRenumber(t *testing.T) {
	in := []Entity{
		{ID: "c3", ParentID: "l1", Position: 42},
		{ID: "c1", ParentID: "l1", Position: 0.001},
		{ID: "c2", ParentID: "l1", Position: -7},
	}

	out := Renumber(in)

	require.Len(t, out, 3)
	assert.Equal(t, Entity{ID: "c3", ParentID: "l1", Position: 0}, out[0])
	assert.Equal(t, Entity{ID: "c1", ParentID: "l1", Position: 1}, out[1])
	assert.Equal(t, Entity{ID: "c2", ParentID: "l1", Position: 2}, out[2])

	// Исходный срез не изменяется
	assert.Equal(t, float64(42), in[0].Position)
}

func TestSort_TieBreakByID(t *testing.T) {
	entities := []Entity{
		{ID: "b", Position: 1},
		{ID: "z", Position: 0},
		{ID: "a", Position: 1},
		{ID: "c", Position: 1},
	}

	Sort(entities)

	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"z", "a", "b", "c"}, ids)
}

func TestAssignOrder(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		ids     []string
		want    []Placement
	}{
		{
			name: "reorder cards",
			ids:  []string{"C3", "C1", "C2"},
			want: []Placement{{ID: "C3", Position: 0}, {ID: "C1", Position: 1}, {ID: "C2", Position: 2}},
		},
		{
			name: "empty",
			ids:  []string{},
			want: []Placement{},
		},
		{
			name:    "duplicate",
			ids:     []string{"a", "b", "a"},
			wantErr: ErrDuplicateID,
		},
		{
			name:    "empty id",
			ids:     []string{"a", ""},
			wantErr: ErrEmptyID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AssignOrder(tt.ids)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			for i := 1; i < len(got); i++ {
				assert.Less(t, got[i-1].Position, got[i].Position)
			}
		})
	}
}

func TestPlace(t *testing.T) {
	siblings := []Entity{
		{ID: "c", Position: 2},
		{ID: "a", Position: 0},
		{ID: "b", Position: 1},
	}

	t.Run("insert new between", func(t *testing.T) {
		plan, err := Place(siblings, "new", 1)
		require.NoError(t, err)
		assert.Equal(t, 0.5, plan.Position)
		assert.Empty(t, plan.Renumbered)
	})

	t.Run("move existing to end", func(t *testing.T) {
		plan, err := Place(siblings, "a", 2)
		require.NoError(t, err)
		assert.Equal(t, float64(3), plan.Position)
		assert.Empty(t, plan.Renumbered)
	})

	t.Run("move existing to front", func(t *testing.T) {
		plan, err := Place(siblings, "c", 0)
		require.NoError(t, err)
		assert.Equal(t, float64(-1), plan.Position)
	})

	t.Run("invalid index", func(t *testing.T) {
		_, err := Place(siblings, "new", 5)
		assert.ErrorIs(t, err, ErrInvalidIndex)
	})

	t.Run("falls back to renumber", func(t *testing.T) {
		crowded := []Entity{
			{ID: "x", Position: 1},
			{ID: "y", Position: math.Nextafter(1, 2)},
			{ID: "z", Position: 5},
		}

		plan, err := Place(crowded, "new", 1)
		require.NoError(t, err)
		assert.Equal(t, float64(1), plan.Position)
		assert.Equal(t, []Placement{
			{ID: "x", Position: 0},
			{ID: "new", Position: 1},
			{ID: "y", Position: 2},
			{ID: "z", Position: 3},
		}, plan.Renumbered)
	})

	t.Run("ties between neighbours are renumbered", func(t *testing.T) {
		tied := []Entity{{ID: "b", Position: 1}, {ID: "a", Position: 1}}

		plan, err := Place(tied, "new", 1)
		require.NoError(t, err)
		assert.Equal(t, []Placement{
			{ID: "a", Position: 0},
			{ID: "new", Position: 1},
			{ID: "b", Position: 2},
		}, plan.Renumbered)
	})
}
