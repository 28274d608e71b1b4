package livesession

import (
	"fmt"
	"net/url"
	"strings"
)

// controlPanelScript adds a floating panel with a "Done" button to the page,
// clicking it POSTs to arg.endpoint.
const controlPanelScript = `(arg) => {
	const panel = document.createElement('div');
	panel.id = 'control-panel';
	panel.style.cssText = 'position: fixed; top: 20px; right: 20px; background: #fff; padding: 20px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); z-index: 999999; font-family: system-ui, -apple-system, sans-serif;';

	const instructions = document.createElement('div');
	instructions.style.cssText = 'margin-bottom: 15px; font-size: 14px; color: #333; max-width: 250px;';
	instructions.innerHTML = '1. Scroll to the bottom of the reviews<br>2. Expand any truncated reviews<br>3. Click "Done" when finished';

	const button = document.createElement('button');
	button.id = 'done-button';
	button.textContent = 'Done';
	button.style.cssText = 'background: #4CAF50; color: white; border: none; padding: 10px 20px; border-radius: 5px; cursor: pointer; font-size: 14px;';

	const status = document.createElement('div');
	status.id = 'status';
	status.style.cssText = 'margin-top: 10px; font-size: 12px; color: #666;';

	button.addEventListener('click', async () => {
		button.disabled = true;
		button.textContent = 'Processing...';
		status.textContent = 'Notifying server...';
		try {
			const response = await fetch(arg.endpoint, {
				method: 'POST',
				headers: {'Content-Type': 'application/json'},
			});
			if (!response.ok) {
				throw new Error('server responded with ' + response.status);
			}
			status.textContent = 'Server notified, please wait...';
		} catch (error) {
			status.textContent = 'Error: ' + error.message;
			button.disabled = false;
			button.textContent = 'Done';
		}
	});

	panel.appendChild(instructions);
	panel.appendChild(button);
	panel.appendChild(status);
	document.body.appendChild(panel);
	return true;
}`

// scrollScript scrolls to the bottom and returns the new document height.
const scrollScript = `() => {
	window.scrollTo(0, document.documentElement.scrollHeight);
	return document.documentElement.scrollHeight;
}`

// CompletionEndpoint is the url the injected panel notifies for session.
func CompletionEndpoint(callbackBase, sessionId string) string {
	values := url.Values{}
	values.Set("session", sessionId)
	return fmt.Sprintf(
		"%s/api/scraping-done?%s",
		strings.TrimRight(callbackBase, "/"),
		values.Encode(),
	)
}
