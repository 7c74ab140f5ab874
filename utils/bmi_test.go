package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBMI(t *testing.T) {
	bmi, err := CalculateBMI(180, 75)
	require.NoError(t, err)
	assert.InDelta(t, 23.148, bmi, 1e-3)

	_, err = CalculateBMI(0, 75)
	assert.Error(t, err)

	_, err = CalculateBMI(180, 500)
	assert.Error(t, err)
}

func TestBMICategory(t *testing.T) {
	assert.Equal(t, "Underweight", BMICategory(17.0))
	assert.Equal(t, "Normal weight", BMICategory(23.1))
	assert.Equal(t, "Overweight", BMICategory(27.0))
	assert.Equal(t, "Obesity class I", BMICategory(32.0))
	assert.Equal(t, "Obesity class III", BMICategory(42.0))
}
