package output

func NewLimitedChanWriter(limit int) LimitedChanWriter {
	return make(LimitedChanWriter, limit)
}

// LimitedChanWriter keeps the most recent writes, evicting the oldest entry when full.
type LimitedChanWriter chan string

func (lcw LimitedChanWriter) Write(p []byte) (int, error) { // nolint:unparam // err is needed to implement io.Writer
	if len(lcw) == cap(lcw) {
		<-lcw
	}

	lcw <- string(p)

	return len(p), nil
}
