// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/bizdesk/pkg/pointer"
)

func TestTo_CopiesValue(t *testing.T) {
	attempts := 3
	p := pointer.To(attempts)
	attempts++

	assert.Equal(t, 3, *p)
}

func TestVal(t *testing.T) {
	var missing *time.Time
	assert.True(t, pointer.Val(missing).IsZero())
	assert.Equal(t, "Jane", pointer.Val(pointer.To("Jane")))
}
