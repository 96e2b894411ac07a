package lanyard

const statusCSS = `
:host {
  font-family: system-ui, "Segoe UI", Roboto, Helvetica, Arial, sans-serif, "Apple Color Emoji", "Segoe UI Emoji", "Segoe UI Symbol";
  --bg-color: #2b2d31;
  --text-color: rgb(148, 155, 164);
  box-sizing: border-box;
}

.outer-container {
  display: flex;
  gap: 15px;
  background-color: var(--bg-color);
  padding: 10px;
  width: 300px;
}

.text-container {
  color: var(--text-color);
  font-weight: 500;
  display: flex;
  flex-direction: column;
  justify-content: center;
}

.display-name {
  font-size: 20px;
}

.activity-container {
  font-size: 14px;
}

.rich-presence-indicator {
  background-color: var(--text-color);
  color: var(--bg-color);
  border-radius: 2px;
  width: 10px;
  height: 10px;
  padding: 1px;
  display: inline-flex;
}

.rich-presence-indicator svg {
  width: 10px;
  height: 10px;
}

.activity-name {
  font-weight: bold;
}

.hide {
  display: none;
}

.avatar-container {
  position: relative;
  width: 64px;
  height: 64px;
  background-color: var(--bg-color);
}

.avatar-img {
  position: relative;
  width: 100%;
  border-radius: 50%;
}

.activity-indicator {
  display: inline-block;
  position: absolute;
  border-radius: 50%;
  top: 44px;
  left: 44px;
  width: 15px;
  height: 15px;
  border: 3px solid #2b2d31;
}

.activity-indicator[status="online"] {
  background-color: rgb(35, 165, 90);
}

.activity-indicator[status="idle"] {
  background-color: rgb(240, 178, 50);
}

.activity-indicator[status="dnd"] {
  background-color: rgb(242, 63, 67);
}

.activity-indicator[status="offline"] {
  background-color: rgb(128, 132, 142);
}

.activity-indicator[status="streaming"] {
  background-color: rgb(89, 54, 149);
}

.activity-indicator .activity-tooltip {
  visibility: hidden;
  width: min-content;
  background-color: black;
  color: #fff;
  text-align: center;
  padding: 5px 10px;
  border-radius: 6px;
  position: absolute;
  z-index: 1;
  width: min-content;
  bottom: 155%;
  left: 50%;
  transform: translateX(-50%);
}

.activity-indicator:hover .activity-tooltip {
  visibility: visible;
}

.activity-indicator .activity-tooltip::after {
  content: " ";
  position: absolute;
  top: 100%;
  left: 50%;
  margin-left: -5px;
  border-width: 5px;
  border-style: solid;
  border-color: black transparent transparent transparent;
}

.activity-emoji {
  width: 14px;
  height: 14px;
  vertical-align: middle;
}
`

const richPresenceIcon = `<svg width="24" height="24" viewBox="0 0 24 24" fill="none" xmlns="http://www.w3.org/2000/svg"><path d="M2 5.99519C2 5.44556 2.44556 5 2.99519 5H11.0048C11.5544 5 12 5.44556 12 5.99519C12 6.54482 11.5544 6.99039 11.0048 6.99039H2.99519C2.44556 6.99039 2 6.54482 2 5.99519Z" fill="currentColor"/><path d="M2 11.9998C2 11.4501 2.44556 11.0046 2.99519 11.0046H21.0048C21.5544 11.0046 22 11.4501 22 11.9998C22 12.5494 21.5544 12.9949 21.0048 12.9949H2.99519C2.44556 12.9949 2 12.5494 2 11.9998Z" fill="currentColor"/><path d="M2.99519 17.0096C2.44556 17.0096 2 17.4552 2 18.0048C2 18.5544 2.44556 19 2.99519 19H15.0048C15.5544 19 16 18.5544 16 18.0048C16 17.4552 15.5544 17.0096 15.0048 17.0096H2.99519Z" fill="currentColor"/></svg>`
