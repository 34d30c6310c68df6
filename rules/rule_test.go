package rules

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExprEvaluator tests the ExprEvaluator implementation against
// alert-condition style expressions.
func TestExprEvaluator(t *testing.T) {
	evaluator := NewExprEvaluator()

	tests := []struct {
		name       string
		expression string
		env        map[string]interface{}
		wantResult bool
		wantErr    bool
		errMsg     string
	}{
		{
			name:       "threshold crossed",
			expression: "overall >= 0.7",
			env:        map[string]interface{}{"overall": 0.82},
			wantResult: true,
		},
		{
			name:       "threshold not crossed",
			expression: "overall >= 0.7",
			env:        map[string]interface{}{"overall": 0.31},
			wantResult: false,
		},
		{
			name:       "compound condition",
			expression: "bottlenecks > 2 && timing > 0.5",
			env:        map[string]interface{}{"bottlenecks": 3, "timing": 0.6},
			wantResult: true,
		},
		{
			name:       "non-boolean result",
			expression: "overall + 0.1",
			env:        map[string]interface{}{"overall": 0.5},
			wantResult: false,
			wantErr:    true,
			errMsg:     "did not evaluate to a boolean",
		},
		{
			name:       "invalid expression",
			expression: "overall >>> 0.7",
			env:        map[string]interface{}{"overall": 0.5},
			wantResult: false,
			wantErr:    true,
			errMsg:     "unexpected token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := evaluator.Evaluate(tt.expression, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				assert.Equal(t, tt.wantResult, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantResult, result)
			}
		})
	}

	t.Run("caching works", func(t *testing.T) {
		env := map[string]interface{}{"conflicts": 4}

		result1, err1 := evaluator.Evaluate("conflicts > 2", env)
		assert.NoError(t, err1)
		assert.True(t, result1)

		result2, err2 := evaluator.Evaluate("conflicts > 2", env)
		assert.NoError(t, err2)
		assert.True(t, result2)
	})

	t.Run("derived field", func(t *testing.T) {
		ev := NewExprEvaluator()
		ev.AddDerivedField("weighted", func(env map[string]interface{}) interface{} {
			return env["overall"].(float64) * 100
		})

		result, err := ev.Evaluate("weighted > 50", map[string]interface{}{"overall": 0.8})
		assert.NoError(t, err)
		assert.True(t, result)
	})
}

func TestExprEvaluator_ConcurrentEvaluate(t *testing.T) {
	evaluator := NewExprEvaluator()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result, err := evaluator.Evaluate("overall >= 0.7", map[string]interface{}{"overall": float64(n) / 10})
			assert.NoError(t, err)
			assert.Equal(t, n >= 7, result)
		}(i)
	}
	wg.Wait()
}
