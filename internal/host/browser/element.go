package browser

import (
	"github.com/go-rod/rod"
	"github.com/ysmood/gson"

	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/logging"
)

const boundsJS = `() => {
	const r = this.getBoundingClientRect();
	return [r.top, r.height];
}`

const setClipJS = `(v) => { this.style.clipPath = v; }`

// Node is a page element. Failed protocol calls degrade to a zero box.
type Node struct {
	el     *rod.Element
	logger *logging.Logger
	clip   core.Clip
	set    bool
}

func newNode(el *rod.Element, logger *logging.Logger) *Node {
	return &Node{el: el, logger: logger}
}

// Bounds returns the element's viewport box.
func (n *Node) Bounds() core.Rect {
	res, err := n.el.Eval(boundsJS)
	if err != nil {
		n.logger.Debug("bounds: %v", err)
		return core.Rect{}
	}
	return rectFromValue(res.Value)
}

// SetClip writes the clip as a CSS clip-path. Unchanged clips are not
// re-sent.
func (n *Node) SetClip(c core.Clip) {
	if n.set && c.Equals(n.clip) {
		return
	}
	if _, err := n.el.Eval(setClipJS, c.CSS()); err != nil {
		n.logger.Warn("set clip-path: %v", err)
		return
	}
	n.clip, n.set = c, true
}

// rectFromValue reads [top, height]. Anything else is a zero box.
func rectFromValue(v gson.JSON) core.Rect {
	arr := v.Arr()
	if len(arr) != 2 {
		return core.Rect{}
	}
	return core.NewRect(arr[0].Num(), arr[1].Num())
}
