package window

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/godotshot/internal/logger"
)

// X11Lister lists and raises windows on a native X11 display.
type X11Lister struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo

	mu    sync.Mutex
	atoms map[string]xproto.Atom
}

// NewX11Lister connects to the display named by $DISPLAY.
func NewX11Lister() (*X11Lister, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	return &X11Lister{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
		atoms:  make(map[string]xproto.Atom),
	}, nil
}

// Close closes the X11 connection
func (l *X11Lister) Close() error {
	l.conn.Close()
	return nil
}

// Name returns the lister name
func (l *X11Lister) Name() string {
	return "x11"
}

// Conn returns the X11 connection (shared with the capturer)
func (l *X11Lister) Conn() *xgb.Conn {
	return l.conn
}

// Root returns the root window
func (l *X11Lister) Root() xproto.Window {
	return l.root
}

// Screen returns the screen info
func (l *X11Lister) Screen() *xproto.ScreenInfo {
	return l.screen
}

// ListWindows returns titled windows from EWMH _NET_CLIENT_LIST, falling back
// to the root window's children.
func (l *X11Lister) ListWindows(ctx context.Context) ([]Record, error) {
	log := logger.WithComponent("x11-lister")

	ids, err := l.clientList()
	if err != nil || len(ids) == 0 {
		log.Debug().Err(err).Msg("EWMH client list unavailable, falling back to QueryTree")
		tree, treeErr := xproto.QueryTree(l.conn, l.root).Reply()
		if treeErr != nil {
			return nil, fmt.Errorf("failed to query window tree: %w", treeErr)
		}
		ids = tree.Children
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		title := l.title(id)
		if title == "" {
			continue
		}
		records = append(records, Record{Handle: FormatHandle(id), Title: title})
	}

	log.Debug().Int("count", len(records)).Msg("Listed X11 windows")
	return records, nil
}

func (l *X11Lister) clientList() ([]xproto.Window, error) {
	atom, err := l.atom("_NET_CLIENT_LIST")
	if err != nil {
		return nil, err
	}

	reply, err := xproto.GetProperty(
		l.conn,
		false,
		l.root,
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get _NET_CLIENT_LIST property: %w", err)
	}

	ids := make([]xproto.Window, 0, len(reply.Value)/4)
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		ids = append(ids, xproto.Window(uint32(reply.Value[i])|
			uint32(reply.Value[i+1])<<8|
			uint32(reply.Value[i+2])<<16|
			uint32(reply.Value[i+3])<<24))
	}
	return ids, nil
}

func (l *X11Lister) title(win xproto.Window) string {
	for _, name := range []string{"_NET_WM_NAME", "WM_NAME"} {
		atom, err := l.atom(name)
		if err != nil {
			continue
		}
		if title, err := l.property(win, atom); err == nil && title != "" {
			return strings.TrimRight(title, "\x00")
		}
	}
	return ""
}

// Bounds returns the window rectangle in root coordinates.
func (l *X11Lister) Bounds(handle string) (image.Rectangle, error) {
	win, err := ParseHandle(handle)
	if err != nil {
		return image.Rectangle{}, err
	}

	geom, err := xproto.GetGeometry(l.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("failed to get window geometry: %w", err)
	}
	pos, err := xproto.TranslateCoordinates(l.conn, win, l.root, 0, 0).Reply()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("failed to translate window coordinates: %w", err)
	}

	x, y := int(pos.DstX), int(pos.DstY)
	return image.Rect(x, y, x+int(geom.Width), y+int(geom.Height)), nil
}

// Activate maps the window, raises it and asks the window manager to focus
// it via _NET_ACTIVE_WINDOW.
func (l *X11Lister) Activate(handle string) error {
	win, err := ParseHandle(handle)
	if err != nil {
		return err
	}

	xproto.MapWindow(l.conn, win)
	xproto.ConfigureWindow(l.conn, win, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})

	atom, err := l.atom("_NET_ACTIVE_WINDOW")
	if err != nil {
		return err
	}
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atom,
		// source indication 2 = pager/tool
		Data: xproto.ClientMessageDataUnionData32New([]uint32{2, uint32(xproto.TimeCurrentTime), 0, 0, 0}),
	}
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	if err := xproto.SendEventChecked(l.conn, false, l.root, mask, string(ev.Bytes())).Check(); err != nil {
		return fmt.Errorf("failed to activate window %s: %w", handle, err)
	}
	return nil
}

func (l *X11Lister) atom(name string) (xproto.Atom, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a, ok := l.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(l.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern atom %s: %w", name, err)
	}
	l.atoms[name] = reply.Atom
	return reply.Atom, nil
}

func (l *X11Lister) property(win xproto.Window, atom xproto.Atom) (string, error) {
	reply, err := xproto.GetProperty(
		l.conn,
		false,
		win,
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return "", err
	}
	if reply.ValueLen == 0 {
		return "", fmt.Errorf("empty property")
	}
	return string(reply.Value), nil
}

// FormatHandle renders an X11 window ID as a record handle.
func FormatHandle(win xproto.Window) string {
	return "0x" + strconv.FormatUint(uint64(win), 16)
}

// ParseHandle is the inverse of FormatHandle.
func ParseHandle(handle string) (xproto.Window, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(handle, "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid X11 window handle %q: %w", handle, err)
	}
	return xproto.Window(id), nil
}
