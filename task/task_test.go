package task

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_StartsEagerly(t *testing.T) {
	var ran bool
	tk := Go(func(co *Co) (int, error) {
		ran = true
		return 1, nil
	})
	assert.True(t, ran)
	assert.True(t, tk.Done())
	assert.Equal(t, StateDone, tk.State())
}

func TestGet_Idempotent(t *testing.T) {
	tk := Go(func(co *Co) (string, error) {
		return "value", nil
	})
	for range 3 {
		v, err := tk.Get()
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}

	cause := errors.New("failed")
	tk = Go(func(co *Co) (string, error) {
		return "ignored", cause
	})
	for range 3 {
		v, err := tk.Get()
		assert.Same(t, cause, err)
		assert.Empty(t, v)
	}
}

func TestGo_PanicIsStored(t *testing.T) {
	tk := Go(func(co *Co) (int, error) {
		panic(io.ErrUnexpectedEOF)
	})
	require.True(t, tk.Done())

	_, err1 := tk.Get()
	_, err2 := tk.Get()

	var panicErr *PanicError
	require.ErrorAs(t, err1, &panicErr)
	assert.Equal(t, io.ErrUnexpectedEOF, panicErr.Value)
	assert.ErrorIs(t, err1, io.ErrUnexpectedEOF)
	assert.Same(t, err1, err2)
	assert.Contains(t, err1.Error(), "unexpected EOF")

	tk = Go(func(co *Co) (int, error) {
		panic("boom")
	})
	err := tk.Err()
	require.ErrorAs(t, err, &panicErr)
	assert.Nil(t, panicErr.Unwrap())
}

func TestAwait_CompletedTask(t *testing.T) {
	foo := Go(func(co *Co) (int, error) {
		return 42, nil
	})
	bar := Go(func(co *Co) (int, error) {
		v, err := Await(co, foo)
		return v * 2, err
	})

	v, err := bar.Get()
	require.NoError(t, err)
	assert.Equal(t, 84, v)
}

func TestAwait_PropagatesError(t *testing.T) {
	cause := errors.New("inner")
	foo := Go(func(co *Co) (int, error) {
		return 0, cause
	})
	bar := GoVoid(func(co *Co) error {
		_, err := Await(co, foo)
		return err
	})
	assert.Same(t, cause, bar.Err())
}

func TestAwait_ResumesWaiterBeforeReturning(t *testing.T) {
	var (
		fooCo *Co
		trace []string
	)
	foo := Go(func(co *Co) (int, error) {
		fooCo = co
		trace = append(trace, "foo suspend")
		if err := co.Suspend(nil); err != nil {
			return 0, err
		}
		trace = append(trace, "foo resumed")
		return 21, nil
	})
	bar := Go(func(co *Co) (int, error) {
		trace = append(trace, "bar await")
		v, err := Await(co, foo)
		trace = append(trace, "bar resumed")
		return v * 2, err
	})

	assert.False(t, foo.Done())
	assert.False(t, bar.Done())
	assert.Equal(t, StateSuspended, bar.State())
	_, err := bar.Get()
	assert.ErrorIs(t, err, ErrPending)

	require.NoError(t, fooCo.Resume())
	trace = append(trace, "resume returned")

	v, err := bar.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, []string{
		"foo suspend",
		"bar await",
		"foo resumed",
		"bar resumed",
		"resume returned",
	}, trace)
}

func TestAwait_Misuse(t *testing.T) {
	var fooCo *Co
	foo := Go(func(co *Co) (int, error) {
		fooCo = co
		err := co.Suspend(nil)
		return 1, err
	})

	first := Go(func(co *Co) (int, error) {
		return Await(co, foo)
	})
	second := Go(func(co *Co) (int, error) {
		return Await(co, foo)
	})
	assert.ErrorIs(t, second.Err(), ErrWaiterRegistered)

	_, err := Await(nil, foo)
	assert.ErrorIs(t, err, ErrNoCoroutine)

	require.NoError(t, fooCo.Resume())
	v, err := first.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// completed tasks need no coroutine
	v, err = Await(nil, foo)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestAwait_Self(t *testing.T) {
	var (
		self   *Task[int]
		selfCo *Co
	)
	self = Go(func(co *Co) (int, error) {
		selfCo = co
		if err := co.Suspend(nil); err != nil {
			return 0, err
		}
		return Await(co, self)
	})
	require.NoError(t, selfCo.Resume())
	assert.ErrorIs(t, self.Err(), ErrSelfAwait)
}

func TestCo_ResumeNotSuspended(t *testing.T) {
	var saved *Co
	tk := Go(func(co *Co) (int, error) {
		saved = co
		return 0, co.Resume()
	})
	assert.ErrorIs(t, tk.Err(), ErrNotSuspended)
	assert.ErrorIs(t, saved.Resume(), ErrNotSuspended)
	assert.ErrorIs(t, saved.Suspend(nil), ErrNotRunning)
	assert.ErrorIs(t, (*Co)(nil).Suspend(nil), ErrNoCoroutine)
}

func TestCo_OnSuspendRunsAfterParking(t *testing.T) {
	var observed State
	tk := Go(func(co *Co) (int, error) {
		err := co.Suspend(func() {
			observed = co.State()
		})
		return 0, err
	})
	assert.Equal(t, StateSuspended, observed)
	assert.False(t, tk.Done())
}

func TestCo_ResumeFromOtherGoroutine(t *testing.T) {
	done := make(chan struct{})
	tk := Go(func(co *Co) (int, error) {
		err := co.Suspend(func() {
			go func() {
				defer close(done)
				_ = co.Resume()
			}()
		})
		return 42, err
	})
	<-done

	v, err := tk.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestGoVoid(t *testing.T) {
	var calls int
	tk := GoVoid(func(co *Co) error {
		calls++
		return nil
	})
	v, err := tk.Get()
	require.NoError(t, err)
	assert.Equal(t, Void{}, v)
	assert.NoError(t, tk.Err())
	assert.Equal(t, 1, calls)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Suspended", StateSuspended.String())
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Done", StateDone.String())
	assert.Equal(t, "Unknown", State(99).String())
}
