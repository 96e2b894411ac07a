package greenhouse

// shelves.css by missmoss.neocities.org
const shelvesCSS = `
.shelf {
  display: block;
  z-index: 9;
  content: url("https://files.catbox.moe/s1apr5.png");
  position: relative;
  width: 941px;
  height: 175px;
  margin-left: auto;
  margin-right: auto;
}

.stuffonshelf {
  display: flex;
  justify-content: space-between;
  align-items: flex-end;
  position: relative;
  z-index: 10;
  margin-bottom: -80px;
  width: 770px;
  margin-left: auto;
  margin-right: auto;
}
`
