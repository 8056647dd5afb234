package browser

// activeElementJS returns the focused element as a one-item list, descending
// into open shadow roots. Focus on the body counts as none.
const activeElementJS = `() => {
	let el = document.activeElement;
	while (el && el.shadowRoot && el.shadowRoot.activeElement) {
		el = el.shadowRoot.activeElement;
	}
	if (!el || el === document.body || el === document.documentElement) return [];
	return [el];
}`

const describeJS = `() => {
	const el = this;
	const style = el.isConnected ? getComputedStyle(el) : null;
	return {
		tag: el.tagName.toLowerCase(),
		type: (el.getAttribute('type') || '').toLowerCase(),
		id: el.id || '',
		disabled: !!el.disabled,
		readOnly: !!el.readOnly,
		contentEditable: !!el.isContentEditable,
		visible: el.getClientRects().length > 0 && !!style && style.visibility !== 'hidden',
		connected: el.isConnected,
	};
}`

// runOpsJS executes a list of dom.Op against this element in one task, so
// the page never observes a partial sequence.
const runOpsJS = `(ops) => {
	const el = this;
	if (!el.isConnected) return { detached: true, text: '' };

	const textOf = () => el.isContentEditable ? el.innerText : String(el.value ?? '');
	const caret = () => {
		const sel = window.getSelection();
		let range = sel.rangeCount ? sel.getRangeAt(0) : null;
		if (!range || !el.contains(range.commonAncestorContainer)) {
			range = document.createRange();
			range.selectNodeContents(el);
			range.collapse(false);
		}
		return { sel, range };
	};
	let canceled = false;

	for (const op of ops) {
		switch (op.kind) {
		case 'focus':
			el.focus();
			break;

		case 'setValue': {
			const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype
				: el instanceof HTMLInputElement ? HTMLInputElement.prototype
				: Object.getPrototypeOf(el);
			const desc = Object.getOwnPropertyDescriptor(proto, 'value');
			if (desc && desc.set) desc.set.call(el, op.value ?? '');
			else el.value = op.value ?? '';
			break;
		}

		case 'clear': {
			const sel = window.getSelection();
			const range = document.createRange();
			range.selectNodeContents(el);
			sel.removeAllRanges();
			sel.addRange(range);
			document.execCommand('delete', false);
			if (el.textContent !== '') {
				range.selectNodeContents(el);
				range.deleteContents();
				el.dispatchEvent(new InputEvent('beforeinput', { bubbles: true, inputType: 'deleteContent' }));
				el.dispatchEvent(new InputEvent('input', { bubbles: true, inputType: 'deleteContent' }));
			}
			break;
		}

		case 'commit': {
			const text = op.value ?? '';
			if (canceled || el.innerText.trim() === text.trim()) break;
			const { sel, range } = caret();
			range.deleteContents();
			const node = document.createTextNode(text);
			range.insertNode(node);
			range.setStartAfter(node);
			range.collapse(true);
			sel.removeAllRanges();
			sel.addRange(range);
			break;
		}

		case 'dispatch': {
			const e = op.event;
			const init = { bubbles: e.bubbles, cancelable: e.cancelable };
			if ('data' in e) init.data = e.data;
			if (e.inputType) init.inputType = e.inputType;
			if (e.key) init.key = e.key;
			if (e.code) init.code = e.code;
			if (e.keyCode) {
				init.keyCode = e.keyCode;
				init.which = e.keyCode;
			}
			const Ctor = typeof window[e.class] === 'function' ? window[e.class] : Event;
			const ev = new Ctor(e.type, init);
			if (e.keyCode && ev.keyCode !== e.keyCode) {
				Object.defineProperty(ev, 'keyCode', { get: () => e.keyCode });
				Object.defineProperty(ev, 'which', { get: () => e.keyCode });
			}
			const ok = el.dispatchEvent(ev);
			if (e.type === 'beforeinput') canceled = !ok;
			break;
		}

		case 'click':
			el.click();
			break;

		default:
			throw new Error('unknown op: ' + op.kind);
		}
	}
	return { detached: false, text: textOf() };
}`

// focusProbeJS notifies the named binding on every focus change toward a
// text-entry candidate. It is installed once per document.
const focusProbeJS = `(function (name) {
	const flag = '__' + name + 'Installed';
	if (window[flag]) return;
	window[flag] = true;
	document.addEventListener('focusin', (e) => {
		const t = e.composedPath ? e.composedPath()[0] : e.target;
		if (!t || !(t.isContentEditable || (t.matches && t.matches('input, textarea')))) return;
		if (typeof window[name] === 'function') window[name](null);
	}, true);
})(%q)`
