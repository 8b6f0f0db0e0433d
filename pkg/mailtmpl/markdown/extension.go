package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
)

var (
	buttonPrefix = []byte("[!button|")
	embedPrefix  = []byte("[!embed|")

	// KindButton is the node kind of ButtonNode.
	KindButton = ast.NewNodeKind("Button")
	// KindEmbed is the node kind of EmbedNode.
	KindEmbed = ast.NewNodeKind("Embed")

	scopesKey   = parser.NewContextKey()
	embedErrKey = parser.NewContextKey()
)

// ButtonNode is a call-to-action link.
type ButtonNode struct {
	ast.BaseInline
	URL   []byte
	Label []byte
}

func (n *ButtonNode) Kind() ast.NodeKind { return KindButton }

func (n *ButtonNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// EmbedNode is an inline image referencing an embedding by name.
type EmbedNode struct {
	ast.BaseInline
	Name []byte
	URL  string
}

func (n *EmbedNode) Kind() ast.NodeKind { return KindEmbed }

func (n *EmbedNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": string(n.Name)}, nil)
}

// buttonParser parses [!button|Label](URL).
type buttonParser struct{}

func (p *buttonParser) Trigger() []byte { return []byte{'['} }

func (p *buttonParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, buttonPrefix) {
		return nil
	}

	rest := line[len(buttonPrefix):]
	labelEnd := bytes.IndexByte(rest, ']')
	if labelEnd == -1 || labelEnd+1 >= len(rest) || rest[labelEnd+1] != '(' {
		return nil
	}
	urlPart := rest[labelEnd+2:]
	urlEnd := bytes.IndexByte(urlPart, ')')
	if urlEnd == -1 {
		return nil
	}

	block.Advance(len(buttonPrefix) + labelEnd + 2 + urlEnd + 1)
	return &ButtonNode{Label: rest[:labelEnd], URL: urlPart[:urlEnd]}
}

// embedParser parses [!embed|name] and resolves name against the render scopes
// stored in the parser context.
type embedParser struct{}

func (p *embedParser) Trigger() []byte { return []byte{'['} }

func (p *embedParser) Parse(_ ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, embedPrefix) {
		return nil
	}

	rest := line[len(embedPrefix):]
	end := bytes.IndexByte(rest, ']')
	if end <= 0 {
		return nil
	}
	block.Advance(len(embedPrefix) + end + 1)

	node := &EmbedNode{Name: rest[:end]}
	scopes, _ := pc.Get(scopesKey).(mailtmpl.Scopes)
	url, err := scopes.URL(string(node.Name))
	if err != nil {
		if pc.Get(embedErrKey) == nil {
			pc.Set(embedErrKey, err)
		}
		return node
	}
	node.URL = url
	return node
}

type nodeRenderer struct {
	html.Config
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindButton, r.renderButton)
	reg.Register(KindEmbed, r.renderEmbed)
}

func (r *nodeRenderer) renderButton(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ButtonNode)

	_, _ = w.WriteString(`<a href="`)
	if !html.IsDangerousURL(n.URL) {
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.URL, true)))
	}
	_, _ = w.WriteString(`" class="btn">`)
	_, _ = w.Write(util.EscapeHTML(n.Label))
	_, _ = w.WriteString(`</a>`)
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderEmbed(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*EmbedNode)

	_, _ = w.WriteString(`<img src="`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.URL)))
	_, _ = w.WriteString(`" alt="`)
	_, _ = w.Write(util.EscapeHTML(n.Name))
	_, _ = w.WriteString(`">`)
	return ast.WalkContinue, nil
}

// Extension adds the button and embed syntax to goldmark.
type Extension struct{}

// NewExtension creates the mail extension.
func NewExtension() goldmark.Extender {
	return &Extension{}
}

func (e *Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&buttonParser{}, 50),
		util.Prioritized(&embedParser{}, 51),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&nodeRenderer{Config: html.NewConfig()}, 50),
	))
}

// newParseContext returns a parser context carrying scopes for [!embed|...].
func newParseContext(scopes mailtmpl.Scopes) parser.Context {
	pc := parser.NewContext()
	pc.Set(scopesKey, scopes)
	return pc
}

// embedError returns the first unresolved embedding recorded during parsing.
func embedError(pc parser.Context) error {
	err, _ := pc.Get(embedErrKey).(error)
	return err
}
