package pushz

import "errors"

// Control signals travel upstream through node.push return values. They are
// not failures and never leave the package: Compiled.Push and the drivers
// translate them into completion.
var (
	// errStopBranch reports that the node returning it, and everything
	// downstream of it, is finished. The innermost enclosing branch closes
	// that path and keeps feeding its other path.
	errStopBranch = errors.New("pushz: branch finished")

	// errStopPipeline is a full stop. It crosses every branch and stops
	// the driver from pulling further items.
	errStopPipeline = errors.New("pushz: pipeline aborted")
)

func isSignal(err error) bool {
	return err == errStopBranch || err == errStopPipeline
}

func isStopBranch(err error) bool {
	return err == errStopBranch
}

func isAbort(err error) bool {
	return err == errStopPipeline
}
