package rod

import (
	"bytes"
	"fmt"
	"text/template"

	"sentinel-agent/internal/usecase/keymap"
)

// Names of the bindings the page scripts call back into Go through.
const (
	mutationBinding = "__sentinelMutation"
	remapBinding    = "__sentinelRemap"
)

// observerScript installs a MutationObserver on the document body. One
// callback per mutation batch; the guard flag keeps a second injection
// from doubling notifications.
const observerScript = `() => {
	if (window.__sentinelObserver) return;
	const install = () => {
		if (window.__sentinelObserver) return;
		if (!document.body) return;
		const obs = new MutationObserver(() => {
			if (window.` + mutationBinding + `) window.` + mutationBinding + `('tick');
		});
		obs.observe(document.body, { childList: true, subtree: true });
		window.__sentinelObserver = obs;
	};
	if (document.body) {
		install();
	} else {
		document.addEventListener('DOMContentLoaded', install);
	}
}`

// keyHookTemplate is the capture-phase keydown hook. It must run in the
// capture phase: the host page's submit-on-Enter handler sits on a
// bubbling listener and has to be pre-empted before it fires. The
// substitute event carries Shift, so it never re-qualifies against the
// hook's own modifier check.
var keyHookTemplate = template.Must(template.New("keyhook").Parse(`() => {
	if (window.__sentinelKeyHook) return;
	window.__sentinelKeyHook = true;
	window.addEventListener('keydown', (ev) => {
		const t = ev.target;
		if (!t) return;
		const editable = t.tagName === 'TEXTAREA' ||
			(t.getAttribute && t.getAttribute('contenteditable') === 'true');
		if (!editable) return;
		if (ev.key !== {{printf "%q" .Key}}) return;
		if (ev.ctrlKey || ev.metaKey || ev.shiftKey) return;
		ev.preventDefault();
		ev.stopImmediatePropagation();
		const sub = new KeyboardEvent('keydown', {
			key: ev.key,
			code: ev.code,
			keyCode: ev.keyCode,
			which: ev.keyCode,
			shiftKey: {{.AssertShift}},
			bubbles: true,
			cancelable: true,
			composed: true
		});
		t.dispatchEvent(sub);
		if (window.` + remapBinding + `) {
			window.` + remapBinding + `({ key: ev.key, code: ev.code, keyCode: ev.keyCode });
		}
	}, true);
}`))

func renderKeyHook(rule keymap.Rule) (string, error) {
	var buf bytes.Buffer
	if err := keyHookTemplate.Execute(&buf, rule); err != nil {
		return "", fmt.Errorf("render key hook: %w", err)
	}
	return buf.String(), nil
}

// dialogScript returns the outer HTML of the topmost modal-role
// container, or an empty string when none is shown.
const dialogScript = `() => {
	const dlg = document.querySelector('[role="dialog"], [role="alertdialog"]');
	return dlg ? dlg.outerHTML : '';
}`
