package mode

// Standard mode names.
const (
	ModeBase        = "base"
	ModeMain        = "main"
	ModeCommand     = "command"
	ModeNormal      = "normal"
	ModeVisual      = "visual"
	ModeCaret       = "caret"
	ModeOperator    = "operator"
	ModeTextEdit    = "text_edit"
	ModeInput       = "input"
	ModeInsert      = "insert"
	ModeCommandLine = "command_line"
	ModePassThrough = "pass_through"
	ModeQuote       = "quote"
	ModeLine        = "line"
	ModeMenu        = "menu"
)

type modeDef struct {
	name  string
	bases []string
	opts  []Option
}

var defaultModes = []modeDef{
	{ModeBase, nil, []Option{
		WithDescription("The base mode for all other modes"),
		WithFlags(FlagHidden),
	}},
	{ModeMain, []string{ModeBase}, []Option{
		WithDescription("The base mode for most other modes"),
		WithFlags(FlagHidden),
	}},
	{ModeCommand, []string{ModeMain}, []Option{
		WithDescription("The base mode for most modes which accept commands rather than input"),
		WithFlags(FlagHidden),
	}},
	{ModeNormal, []string{ModeCommand}, []Option{
		WithChar('n'),
		WithDescription("Active when nothing is focused"),
	}},
	{ModeVisual, []string{ModeCommand}, []Option{
		WithChar('v'),
		WithDescription("Active when text is selected"),
	}},
	{ModeCaret, []string{ModeCommand}, []Option{
		WithDescription("Active when the caret is visible in the document"),
	}},
	{ModeOperator, []string{ModeCommand}, []Option{
		WithChar('o'),
		WithDescription("Waiting for a motion after an operator"),
	}},
	{ModeTextEdit, []string{ModeCommand}, []Option{
		WithChar('t'),
		WithDescription("Vim-like editing of input elements"),
	}},
	{ModeInput, []string{ModeMain}, []Option{
		WithDescription("The base mode for input modes"),
		WithFlags(FlagHidden | FlagInsert | FlagNoCount),
	}},
	{ModeInsert, []string{ModeInput}, []Option{
		WithChar('i'),
		WithDescription("Active when an input element is focused"),
		WithFlags(FlagInsert | FlagNoCount | FlagOwnsFocus),
	}},
	{ModeCommandLine, []string{ModeInput}, []Option{
		WithChar('c'),
		WithDescription("Active when the command line is focused"),
		WithFlags(FlagInsert | FlagNoCount | FlagOwnsFocus),
	}},
	{ModePassThrough, []string{ModeBase}, []Option{
		WithChar('I'),
		WithDescription("All keys but <C-v> are ignored"),
		WithFlags(FlagPassThrough | FlagNoCount),
	}},
	{ModeQuote, []string{ModeBase}, []Option{
		WithDescription("The next key sequence is ignored"),
		WithFlags(FlagPassThrough | FlagOneShot | FlagNoCount),
	}},
	{ModeLine, nil, []Option{
		WithDescription("Line-wise selection overlay"),
		WithFlags(FlagExtended | FlagHidden),
	}},
	{ModeMenu, nil, []Option{
		WithDescription("A menu is open"),
		WithFlags(FlagExtended | FlagHidden),
	}},
}

// RegisterDefaults installs the standard modes.
func RegisterDefaults(r *Registry) error {
	for _, d := range defaultModes {
		if _, err := r.Register(d.name, d.bases, d.opts...); err != nil {
			return err
		}
	}
	return nil
}
